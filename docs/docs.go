// Package docs holds the Swagger 2.0 document served at /swagger. It is kept
// in sync with the @Router annotations in handlers/ (routes/routes_test.go
// checks that every /api route is described).
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/home": {
            "get": {
                "description": "Три последних активных турнира с тремя лучшими участниками каждого.",
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Данные главной страницы",
                "responses": {
                    "200": {"description": "tournaments, demo", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Турниры с открытой регистрацией",
                "responses": {
                    "200": {"description": "tournaments", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Турнир по ID",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "tournament", "schema": {"type": "object", "additionalProperties": true}},
                    "404": {"description": "Турнир не найден", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/tournaments/{tournamentID}/register": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Зарегистрироваться на турнир",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {
                    "201": {"description": "registration", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Анкета не заполнена", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Регистрация закрыта", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Турнир не найден", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Уже зарегистрирован / мест нет", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Регистрация по email и паролю",
                "parameters": [
                    {"description": "Email и пароль", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Credentials"}}
                ],
                "responses": {
                    "201": {"description": "token и user", "schema": {"type": "object", "additionalProperties": true}},
                    "409": {"description": "Email уже занят", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/signin": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход по email и паролю",
                "parameters": [
                    {"description": "Email и пароль", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/models.Credentials"}}
                ],
                "responses": {
                    "200": {"description": "token и user", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/demo": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход под демо-аккаунтом",
                "responses": {
                    "200": {"description": "token и user", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/auth/signout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Выход: сбрасывает cookie с токеном",
                "responses": {
                    "200": {"description": "message", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/yandex/login": {
            "get": {
                "tags": ["auth"],
                "summary": "Вход через Яндекс ID",
                "responses": {
                    "302": {"description": "Редирект на oauth.yandex.ru"},
                    "503": {"description": "Вход через Яндекс не настроен", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/auth/yandex/callback": {
            "get": {
                "tags": ["auth"],
                "summary": "Callback Яндекс ID",
                "parameters": [
                    {"type": "string", "description": "Код авторизации", "name": "code", "in": "query", "required": true},
                    {"type": "string", "description": "State из cookie", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "Редирект в личный кабинет"},
                    "400": {"description": "Неверный state", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "409": {"description": "Email занят аккаунтом с паролем", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Анкета текущего пользователя",
                "responses": {
                    "200": {"description": "profile, complete, missing_fields", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Сохранить анкету",
                "parameters": [
                    {"description": "Поля анкеты", "name": "input", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "profile, complete, missing_fields", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Класс вне 1..11 или дата рождения не в формате YYYY-MM-DD", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/profile/avatar": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Загрузить аватар",
                "parameters": [
                    {"type": "file", "description": "JPEG, PNG или WebP до 5MB", "name": "avatar", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "profile", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Хранилище не настроено", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/profile/registrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["profile"],
                "summary": "Мои регистрации",
                "responses": {
                    "200": {"description": "registrations", "schema": {"type": "object", "additionalProperties": true}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin/tournaments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Создать турнир",
                "parameters": [
                    {"description": "Турнир", "name": "input", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "201": {"description": "tournament", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin/tournaments/{tournamentID}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Изменить турнир",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"description": "Турнир", "name": "input", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "tournament", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Турнир не найден", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin/tournaments/{tournamentID}/results": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Записать результат участника",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"description": "Результат", "name": "input", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {
                    "200": {"description": "result", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Турнир не найден", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin/tournaments/{tournamentID}/registrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Участники турнира",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "registrations, count", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Турнир не найден", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/webhooks/tournament-registration": {
            "get": {
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Описание вебхука регистрации",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Переслать регистрацию на турнир в n8n",
                "parameters": [
                    {"description": "user_id, full_name, school, class, tournament_id, registration_date", "name": "input", "in": "body", "required": true, "schema": {"type": "object", "additionalProperties": true}}
                ],
                "responses": {
                    "200": {"description": "success, message", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Missing required field", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "500": {"description": "Failed to send webhook", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "models.Credentials": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "KMO Registration API",
	Description:      "Регистрация участников на турниры КМО и пересылка событий в n8n.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
