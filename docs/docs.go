// Package docs registers the OpenAPI description served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Scoracle"
        },
        "license": {
            "name": "MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/groups": {
            "get": {
                "description": "Returns every position group with its comparable positions and ranked metrics, in lookup order.",
                "produces": ["application/json"],
                "tags": ["reference"],
                "summary": "List metric groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/metricgroup.Rule"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/seasons": {
            "get": {
                "description": "Returns each competition-season present in the player table with its row count.",
                "produces": ["application/json"],
                "tags": ["reference"],
                "summary": "List seasons",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/store.Season"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/rankings/competition": {
            "get": {
                "description": "Ranks every player in the position group of the given position within one competition and season. Missing metrics default to zero-fill.",
                "produces": ["application/json"],
                "tags": ["rankings"],
                "summary": "Rank a competition-season",
                "parameters": [
                    {"type": "integer", "description": "Season ID", "name": "season_id", "in": "query", "required": true},
                    {"type": "integer", "description": "Competition ID", "name": "competition_id", "in": "query", "required": true},
                    {"type": "string", "description": "Playing position or position group", "name": "position", "in": "query", "required": true},
                    {"enum": ["neutral", "zero"], "type": "string", "description": "Missing-value policy", "name": "policy", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RankingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/rankings/season": {
            "get": {
                "description": "Ranks every player in the position group across all competitions whose season matches the given name in either spelling. Missing metrics default to neutral-fill.",
                "produces": ["application/json"],
                "tags": ["rankings"],
                "summary": "Rank a season across leagues",
                "parameters": [
                    {"type": "string", "description": "Season name", "name": "season_name", "in": "query", "required": true},
                    {"type": "string", "description": "Playing position or position group", "name": "position", "in": "query", "required": true},
                    {"enum": ["neutral", "zero"], "type": "string", "description": "Missing-value policy", "name": "policy", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RankingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/rankings/league": {
            "get": {
                "description": "Ranks every player in the position group within a named competition for a season. A bare year is expanded to its split form. Missing metrics default to neutral-fill.",
                "produces": ["application/json"],
                "tags": ["rankings"],
                "summary": "Rank a league-season",
                "parameters": [
                    {"type": "string", "description": "Competition name", "name": "competition_name", "in": "query", "required": true},
                    {"type": "string", "description": "Season name", "name": "season_name", "in": "query", "required": true},
                    {"type": "string", "description": "Playing position or position group", "name": "position", "in": "query", "required": true},
                    {"enum": ["neutral", "zero"], "type": "string", "description": "Missing-value policy", "name": "policy", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.RankingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/standing": {
            "get": {
                "description": "Ranks the player's position group in the chosen scope and reports the player's rank, top percent, distribution, U21 standing and highlighted team rows.",
                "produces": ["application/json"],
                "tags": ["standings"],
                "summary": "Player standing",
                "parameters": [
                    {"type": "string", "description": "Player name", "name": "player_name", "in": "query", "required": true},
                    {"type": "integer", "description": "Season ID", "name": "season_id", "in": "query", "required": true},
                    {"enum": ["own_league", "all_leagues", "league_season"], "type": "string", "description": "Cohort scope", "name": "scope", "in": "query"},
                    {"type": "string", "description": "Competition name, required for league_season", "name": "league", "in": "query"},
                    {"enum": ["neutral", "zero"], "type": "string", "description": "Missing-value policy", "name": "policy", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.RankingResponse": {
            "type": "object",
            "properties": {
                "cohort": {"type": "string"},
                "policy": {"type": "string"},
                "position_group": {"type": "string"},
                "comparable_positions": {"type": "array", "items": {"type": "string"}},
                "metrics": {"type": "array", "items": {"type": "string"}},
                "count": {"type": "integer"},
                "players": {
                    "type": "array",
                    "description": "Flat rows: player-season fields, one <metric>_percentile key per ranked metric, average_rank, average_rank_percentile",
                    "items": {"type": "object", "additionalProperties": {}}
                }
            }
        },
        "metricgroup.Rule": {
            "type": "object",
            "properties": {
                "position_group": {"type": "string"},
                "comparable_positions": {"type": "array", "items": {"type": "string"}},
                "general_metrics": {"type": "array", "items": {"type": "string"}}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "detail": {"type": "string"},
                        "message": {"type": "string"}
                    }
                }
            }
        },
        "store.Season": {
            "type": "object",
            "properties": {
                "competition_id": {"type": "integer"},
                "competition_name": {"type": "string"},
                "players": {"type": "integer"},
                "season_id": {"type": "integer"},
                "season_name": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Scoracle Rankings API",
	Description:      "Football player percentile rankings computed from current data on every request.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
