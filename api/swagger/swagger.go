package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FAS Core API",
        "description": "Student financial aid assessment and disbursement engine",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Applications", "description": "Change-request workflow and sequencing"},
        {"name": "Assessments", "description": "Assessment lifecycle"},
        {"name": "Disbursements", "description": "Funding eligibility and batches"},
        {"name": "Restrictions", "description": "Federal restriction ledger"},
        {"name": "Appeals", "description": "Ministry appeal decisions"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"}
                }
            }
        },
        "/applications/{id}/change-request": {
            "post": {
                "tags": ["Applications"],
                "summary": "Open a change request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/applications/{id}/change-request/submit": {
            "post": {
                "tags": ["Applications"],
                "summary": "Submit a change request for approval",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/applications/{id}/change-request/approve": {
            "post": {
                "tags": ["Applications"],
                "summary": "Approve a pending change request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/applications/{id}/change-request/decline": {
            "post": {
                "tags": ["Applications"],
                "summary": "Decline a pending change request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/applications/{id}/change-request/cancel": {
            "post": {
                "tags": ["Applications"],
                "summary": "Cancel the caller's in-progress change request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "No in-progress change request found"}
                }
            }
        },
        "/applications/{id}/sequence": {
            "get": {
                "tags": ["Applications"],
                "summary": "Partition the sibling family around an application in time",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "fallbackDate", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{id}/reassessments": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Trigger a manual reassessment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Precondition failed"}
                }
            }
        },
        "/disbursements/eligible": {
            "get": {
                "tags": ["Disbursements"],
                "summary": "List schedules eligible for the next funding batch",
                "parameters": [
                    {"name": "intensity", "in": "query", "required": true, "type": "string"},
                    {"name": "summary", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/disbursements/eligible/export": {
            "get": {
                "tags": ["Disbursements"],
                "summary": "Export the eligible set as CSV or PDF",
                "parameters": [
                    {"name": "intensity", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/disbursements/mark-sent": {
            "post": {
                "tags": ["Disbursements"],
                "summary": "Mark a produced funding batch as sent",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MarkBatchSentRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Part of the batch was no longer pending"}
                }
            }
        },
        "/restrictions/reconcile": {
            "post": {
                "tags": ["Restrictions"],
                "summary": "Run one federal snapshot reconciliation cycle",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/restrictions": {
            "get": {
                "tags": ["Restrictions"],
                "summary": "List a student's active restrictions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/appeals/{id}/decision": {
            "post": {
                "tags": ["Appeals"],
                "summary": "Record a decision on a pending appeal",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AppealDecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Appeal was modified since it was last read"}
                }
            }
        }
    },
    "definitions": {
        "MarkBatchSentRequest": {
            "type": "object",
            "properties": {
                "documentNumber": {"type": "integer"},
                "scheduleIds": {
                    "type": "array",
                    "items": {"type": "string"}
                }
            },
            "required": ["documentNumber", "scheduleIds"]
        },
        "AppealDecisionRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["Approved", "Declined"]},
                "note": {"type": "string"},
                "lastModified": {"type": "string", "format": "date-time"}
            },
            "required": ["status", "lastModified"]
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
