package ai

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/models"
)

// PromptData holds the parameters for template rendering
type PromptData struct {
	Title string
	Body  string
	Diff  string
}

// RenderPrompt renders a prompt template with the provided data
func RenderPrompt(name, tmplStr string, data interface{}) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("error parsing template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error executing template %s: %w", name, err)
	}

	return buf.String(), nil
}

const fence = "```"

const (
	reviewPromptTemplateEN = `# Task
  Act as a Senior Software Engineer doing a thorough code review of a GitHub Pull Request.

  # Pull Request
  ## Title
  {{.Title}}

  ## Description
  {{.Body}}

  ## Diff
` + fence + `diff
{{.Diff}}
` + fence + `

  # Golden Rules (Constraints)
  1. **No Hallucinations:** Only report problems you can point to in the diff.
  2. **Be concrete:** Every issue names the file it belongs to and carries a code fix.
  3. **Format:** Raw JSON only. Do not wrap in markdown blocks.

  # Severity Levels
  - CRITICAL: bugs, data loss, security holes, crashes.
  - MAJOR: wrong behavior in edge cases, missing error handling, performance traps.
  - MINOR: readability, naming, style, small cleanups.

  # STRICT OUTPUT FORMAT
  ⚠️ CRITICAL: You MUST return ONLY one valid JSON object. No markdown blocks, no explanations, no text before/after.
  ⚠️ The object has EXACTLY these keys: "summary", "review_report", "full_corrected_code".

  ## JSON Schema (MANDATORY):
  {
    "type": "object",
    "required": ["summary", "review_report", "full_corrected_code"],
    "properties": {
      "summary": {"type": "string", "description": "Overall assessment of the PR"},
      "review_report": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["file_path", "severity", "description", "fix_suggestion_code"],
          "properties": {
            "file_path": {"type": "string"},
            "severity": {"type": "string", "enum": ["CRITICAL", "MAJOR", "MINOR"]},
            "description": {"type": "string"},
            "fix_suggestion_code": {"type": "string"}
          }
        }
      },
      "full_corrected_code": {"type": "string", "description": "Full corrected file, or empty string"}
    },
    "additionalProperties": false
  }

  ## Type Rules (STRICT):
  - "summary": MUST be string
  - "review_report": MUST be an array, use [] when there are no issues
  - "severity": MUST be exactly one of CRITICAL, MAJOR, MINOR (uppercase)
  - "full_corrected_code": MUST be string, use "" when no full file fix is needed

  Review the pull request now. Return ONLY the JSON object, nothing else.`

	reviewPromptTemplateES = `# Tarea
  Actuá como un Ingeniero de Software Senior haciendo una revisión de código exhaustiva de un Pull Request de GitHub.

  # Pull Request
  ## Título
  {{.Title}}

  ## Descripción
  {{.Body}}

  ## Diff
` + fence + `diff
{{.Diff}}
` + fence + `

  # Reglas de Oro (Constraints)
  1. **Cero alucinaciones:** Reportá solo problemas que puedas señalar en el diff.
  2. **Sé concreto:** Cada problema indica el archivo al que pertenece y trae un arreglo en código.
  3. **Formato:** JSON crudo. No incluyas bloques de markdown.

  # Niveles de Severidad
  - CRITICAL: bugs, pérdida de datos, agujeros de seguridad, crashes.
  - MAJOR: comportamiento incorrecto en casos borde, manejo de errores faltante, problemas de rendimiento.
  - MINOR: legibilidad, nombres, estilo, limpiezas menores.

  # FORMATO DE SALIDA ESTRICTO
  ⚠️ CRÍTICO: DEBES devolver SOLO un objeto JSON válido. Sin bloques de markdown, sin explicaciones, sin texto antes/después.
  ⚠️ El objeto tiene EXACTAMENTE estas claves: "summary", "review_report", "full_corrected_code".
  IMPORTANTE: Responde en ESPAÑOL. Los textos van en español, pero las claves JSON y los valores de severidad quedan en inglés.

  ## Schema JSON (OBLIGATORIO):
  {
    "type": "object",
    "required": ["summary", "review_report", "full_corrected_code"],
    "properties": {
      "summary": {"type": "string", "description": "Evaluación general del PR"},
      "review_report": {
        "type": "array",
        "items": {
          "type": "object",
          "required": ["file_path", "severity", "description", "fix_suggestion_code"],
          "properties": {
            "file_path": {"type": "string"},
            "severity": {"type": "string", "enum": ["CRITICAL", "MAJOR", "MINOR"]},
            "description": {"type": "string"},
            "fix_suggestion_code": {"type": "string"}
          }
        }
      },
      "full_corrected_code": {"type": "string", "description": "Archivo completo corregido, o string vacío"}
    },
    "additionalProperties": false
  }

  ## Reglas de Tipos (ESTRICTO):
  - "summary": DEBE ser string
  - "review_report": DEBE ser un array, usá [] si no hay problemas
  - "severity": DEBE ser exactamente CRITICAL, MAJOR o MINOR (en mayúsculas)
  - "full_corrected_code": DEBE ser string, usá "" si no hace falta un archivo completo

  Revisá el pull request ahora. Devolvé SOLO el objeto JSON, nada más.`
)

// GetReviewPromptTemplate returns the appropriate template based on the language
func GetReviewPromptTemplate(lang string) string {
	switch lang {
	case config.LangES:
		return reviewPromptTemplateES
	default:
		return reviewPromptTemplateEN
	}
}

// ReviewResponseSchema mirrors the JSON shape the prompt asks for, so the
// provider can enforce it.
func ReviewResponseSchema() *models.Schema {
	return &models.Schema{
		Type:     "OBJECT",
		Required: []string{"summary", "review_report", "full_corrected_code"},
		Properties: map[string]*models.Schema{
			"summary": {Type: "STRING"},
			"review_report": {
				Type: "ARRAY",
				Items: &models.Schema{
					Type:     "OBJECT",
					Required: []string{"file_path", "severity", "description", "fix_suggestion_code"},
					Properties: map[string]*models.Schema{
						"file_path": {Type: "STRING"},
						"severity": {
							Type: "STRING",
							Enum: []string{
								string(models.SeverityCritical),
								string(models.SeverityMajor),
								string(models.SeverityMinor),
							},
						},
						"description":         {Type: "STRING"},
						"fix_suggestion_code": {Type: "STRING"},
					},
				},
			},
			"full_corrected_code": {Type: "STRING"},
		},
	}
}
