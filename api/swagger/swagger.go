package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "ProfSight API",
        "description": "Professor review and profile claim service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Signup, login and tokens"},
        {"name": "Professors", "description": "Public directory and follows"},
        {"name": "Reviews", "description": "Ratings, votes and flags"},
        {"name": "Claims", "description": "Profile claim workflow"},
        {"name": "Admin", "description": "Claim queue and moderation"},
        {"name": "Dashboard", "description": "Per-user dashboard"}
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}}
            }
        },
        "/auth/signup": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SignupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Token expired or revoked"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/professors": {
            "get": {
                "tags": ["Professors"],
                "summary": "List professors",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Professors"],
                "summary": "Create professor profile (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProfessorCreateRequest"}}
                ],
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/professors/{id}": {
            "get": {
                "tags": ["Professors"],
                "summary": "Get professor profile",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Professors"],
                "summary": "Update professor profile (owner or admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProfessorUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Not the verified owner"}
                }
            }
        },
        "/professors/{id}/grade-distribution": {
            "get": {
                "tags": ["Professors"],
                "summary": "Grade distribution",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/professors/{id}/follow": {
            "post": {
                "tags": ["Professors"],
                "summary": "Follow a professor",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "tags": ["Professors"],
                "summary": "Unfollow a professor",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not followed"}
                }
            }
        },
        "/professors/following": {
            "get": {
                "tags": ["Professors"],
                "summary": "Professors the caller follows",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/professors/{id}/claim": {
            "post": {
                "tags": ["Claims"],
                "summary": "Claim a professor profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ClaimSubmitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "Not a professor account"},
                    "409": {"description": "Conflicting claim"}
                }
            }
        },
        "/reviews": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Submit a review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewCreateRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate review for semester"}
                }
            }
        },
        "/reviews/professor/{id}": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Reviews for a professor",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/me": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Reviews the caller wrote",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/reviews/{id}": {
            "get": {
                "tags": ["Reviews"],
                "summary": "Get one review",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Reviews"],
                "summary": "Edit a review (owner, within edit window)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewUpdateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Window closed or not the author"}
                }
            },
            "delete": {
                "tags": ["Reviews"],
                "summary": "Delete a review (owner, within edit window)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Window closed or not the author"}
                }
            }
        },
        "/reviews/{id}/vote": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Mark a review helpful",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reviews/{id}/flag": {
            "post": {
                "tags": ["Reviews"],
                "summary": "Report a review",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ReviewFlagRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Already flagged"}
                }
            }
        },
        "/claims/me": {
            "get": {
                "tags": ["Claims"],
                "summary": "Caller's claim status",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/claims/my-profile": {
            "get": {
                "tags": ["Claims"],
                "summary": "Caller's claimed professor profile",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "No claimed profile"}}
            }
        },
        "/claims/{id}/cancel": {
            "post": {
                "tags": ["Claims"],
                "summary": "Cancel a pending claim",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Not the claim owner"},
                    "409": {"description": "Claim no longer pending"}
                }
            }
        },
        "/dashboard/me": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Caller's dashboard",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/claims": {
            "get": {
                "tags": ["Admin"],
                "summary": "Pending claim requests",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/claims/{id}/approve": {
            "post": {
                "tags": ["Admin"],
                "summary": "Approve a claim request",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Claim no longer pending"}
                }
            }
        },
        "/admin/claims/{id}/reject": {
            "post": {
                "tags": ["Admin"],
                "summary": "Reject a claim request",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/ClaimRejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Claim no longer pending"}
                }
            }
        },
        "/admin/flagged-reviews": {
            "get": {
                "tags": ["Admin"],
                "summary": "Flagged review queue",
                "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/flagged-reviews/export": {
            "get": {
                "tags": ["Admin"],
                "summary": "Export the flagged queue",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "Signed download token"}}
            }
        },
        "/admin/flagged-reviews/export/download": {
            "get": {
                "tags": ["Admin"],
                "summary": "Download an exported report",
                "parameters": [{"name": "token", "in": "query", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        },
        "/admin/reviews/{id}": {
            "delete": {
                "tags": ["Admin"],
                "summary": "Delete a review (moderation)",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/admin/reviews/{id}/dismiss-flags": {
            "post": {
                "tags": ["Admin"],
                "summary": "Dismiss all flags on a review",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "SignupRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["STUDENT", "PROFESSOR"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RefreshTokenRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "ProfessorCreateRequest": {
            "type": "object",
            "required": ["name", "department"],
            "properties": {
                "name": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "ProfessorUpdateRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "department": {"type": "string"}
            }
        },
        "ClaimSubmitRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "ClaimRejectRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "ReviewCreateRequest": {
            "type": "object",
            "required": ["professor_id", "rating_quality", "rating_difficulty", "grade_received", "semester"],
            "properties": {
                "professor_id": {"type": "string"},
                "rating_quality": {"type": "integer", "minimum": 1, "maximum": 5},
                "rating_difficulty": {"type": "integer", "minimum": 1, "maximum": 5},
                "grade_received": {"type": "string"},
                "comment": {"type": "string"},
                "course_code": {"type": "string"},
                "semester": {"type": "string"}
            }
        },
        "ReviewUpdateRequest": {
            "type": "object",
            "properties": {
                "rating_quality": {"type": "integer"},
                "rating_difficulty": {"type": "integer"},
                "grade_received": {"type": "string"},
                "comment": {"type": "string"},
                "course_code": {"type": "string"}
            }
        },
        "ReviewFlagRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
