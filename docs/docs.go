package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Call-center Agent Console API",
    "description": "Customer lookup, ticket reconciliation, missed calls and agent reports",
    "version": "1.0"
  },
  "basePath": "/",
  "securityDefinitions": {
    "BearerAuth": {
      "type": "apiKey",
      "name": "Authorization",
      "in": "header"
    }
  },
  "paths": {
    "/healthz": {
      "get": {
        "tags": [
          "health"
        ],
        "summary": "Liveness and database check",
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/auth/login": {
      "post": {
        "tags": [
          "auth"
        ],
        "summary": "Agent login",
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/auth/me": {
      "get": {
        "tags": [
          "auth"
        ],
        "summary": "Current agent",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/auth/logout": {
      "post": {
        "tags": [
          "auth"
        ],
        "summary": "Logout",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/config": {
      "get": {
        "tags": [
          "config"
        ],
        "summary": "Dropdown catalog",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/customers/search": {
      "get": {
        "tags": [
          "customers"
        ],
        "summary": "Search customer by phone",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/customers/{code}": {
      "get": {
        "tags": [
          "customers"
        ],
        "summary": "Get customer",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      },
      "patch": {
        "tags": [
          "customers"
        ],
        "summary": "Update customer contact details",
        "security": [
          {
            "BearerAuth": []
          }
        ],
        "responses": {
          "200": {
            "description": "OK"
          }
        }
      }
    },
    "/api/customers/{code}/history": {
      "get": {
        "tags": [
          "customers"
        ],
        "summary": "Customer history",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/customers/{code}/pending-tickets": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "Pending tickets of a customer",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/customers/{code}/interactions": {
      "post": {
        "tags": [
          "tickets"
        ],
        "summary": "Save interaction",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/tickets/{serial}/interactions": {
      "get": {
        "tags": [
          "tickets"
        ],
        "summary": "Ticket with its interactions",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/agents/online": {
      "get": {
        "tags": [
          "agents"
        ],
        "summary": "Agents active in the presence window",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/agents/heartbeat": {
      "post": {
        "tags": [
          "agents"
        ],
        "summary": "Refresh the current agent's activity",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/misscalls/summary": {
      "get": {
        "tags": [
          "misscalls"
        ],
        "summary": "Missed-call summary",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/reports/agent-interactions": {
      "get": {
        "tags": [
          "reports"
        ],
        "summary": "Interactions per agent",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/reports/processing-times": {
      "get": {
        "tags": [
          "reports"
        ],
        "summary": "Average ticket processing time per agent",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/reports/export.xlsx": {
      "get": {
        "tags": [
          "reports"
        ],
        "summary": "Export agent reports",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/admin/misscalls/import": {
      "post": {
        "tags": [
          "admin"
        ],
        "summary": "Import missed calls",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    },
    "/api/admin/config/reload": {
      "post": {
        "tags": [
          "admin"
        ],
        "summary": "Reload dropdown catalog",
        "responses": {
          "200": {
            "description": "OK"
          }
        },
        "security": [
          {
            "BearerAuth": []
          }
        ]
      }
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
