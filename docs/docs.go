// Package docs содержит OpenAPI-описание HTTP API регистрации для swagger UI.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/signup": {
            "post": {
                "description": "Создаёт учётную запись или ожидающую регистрацию с подтверждением по email.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Signup"],
                "summary": "Регистрация учётной записи",
                "parameters": [
                    {
                        "description": "Данные регистрации",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/signup.Request"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Учётная запись создана",
                        "schema": {"$ref": "#/definitions/signup.AccountResponse"}
                    },
                    "204": {"description": "Письмо с подтверждением отправлено"},
                    "400": {
                        "description": "Регистрация отклонена",
                        "schema": {"$ref": "#/definitions/response.Response"}
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {"$ref": "#/definitions/response.Response"}
                    },
                    "429": {
                        "description": "Слишком много запросов",
                        "schema": {"$ref": "#/definitions/response.Response"}
                    }
                }
            }
        },
        "/signup-pending": {
            "post": {
                "description": "Создаёт учётную запись по коду из письма и выдаёт токен.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Signup"],
                "summary": "Подтверждение регистрации",
                "parameters": [
                    {
                        "description": "Код подтверждения",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/signuppending.Request"}
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Учётная запись создана",
                        "schema": {"$ref": "#/definitions/session.Result"}
                    },
                    "400": {
                        "description": "Код не найден или истёк",
                        "schema": {"$ref": "#/definitions/response.Response"}
                    },
                    "422": {
                        "description": "Ошибка валидации",
                        "schema": {"$ref": "#/definitions/response.Response"}
                    }
                }
            }
        }
    },
    "definitions": {
        "response.ErrorBody": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "REGISTRATION_CLOSED"},
                "message": {"type": "string", "example": "registration is closed"}
            }
        },
        "response.Response": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "Error"},
                "error": {"$ref": "#/definitions/response.ErrorBody"},
                "data": {}
            }
        },
        "session.Result": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "i": {"type": "string"}
            }
        },
        "signup.AccountResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "host": {"type": "string"},
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "emailVerified": {"type": "boolean"},
                "token": {"type": "string"}
            }
        },
        "signup.Request": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "username": {"type": "string", "maxLength": 128},
                "password": {"type": "string"},
                "host": {"type": "string"},
                "invitationCode": {"type": "string"},
                "emailAddress": {"type": "string"},
                "hcaptcha-response": {"type": "string"},
                "g-recaptcha-response": {"type": "string"},
                "turnstile-response": {"type": "string"}
            }
        },
        "signuppending.Request": {
            "type": "object",
            "required": ["code"],
            "properties": {
                "code": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Signup Service API",
	Description:      "API регистрации учётных записей",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
