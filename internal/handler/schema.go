package handler

import (
	"net/http"

	"github.com/sakif/roomview/internal/schema"
)

// SchemaContract describes what one insert endpoint accepts.
type SchemaContract struct {
	Table  string         `json:"table"`
	Fields []schema.Field `json:"fields"`
}

// HandleSchema publishes the field contracts of the insert schemas so
// clients can build forms and pre-validate without duplicating the rules.
//
// HTTP: GET /api/schema
func HandleSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]SchemaContract{
		"insertUser":       contract(schema.InsertUser),
		"insertModel":      contract(schema.InsertModel),
		"insertAnnotation": contract(schema.InsertAnnotation),
	})
}

func contract(s *schema.InsertSchema) SchemaContract {
	return SchemaContract{Table: s.Table().Name, Fields: s.Fields()}
}

// HandleHealth: GET /healthz
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
