// Command formstudio drives the form builder from the terminal: render a
// schema to HTML, fill it interactively, import an OpenAPI operation, or
// serve the review dashboard API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/formstudio-io/go-formstudio/components/reviews"
	"github.com/formstudio-io/go-formstudio/components/reviews/live"
	"github.com/formstudio-io/go-formstudio/pkg/fieldtypes"
	"github.com/formstudio-io/go-formstudio/pkg/importer"
	"github.com/formstudio-io/go-formstudio/pkg/preview"
	"github.com/formstudio-io/go-formstudio/pkg/preview/tui"
	"github.com/formstudio-io/go-formstudio/pkg/schema"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "preview":
		err = runPreview(os.Args[2:])
	case "fill":
		err = runFill(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("formstudio %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: formstudio <command> [flags]

commands:
  preview   render a schema file to HTML
  fill      fill a form interactively and print the answers
  import    turn an OpenAPI operation into a form schema
  serve     run the review dashboard API`)
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	source := fs.String("schema", "form.json", "schema file (JSON or YAML)")
	theme := fs.String("theme", "", "theme name override")
	variant := fs.String("variant", "", "theme variant override")
	output := fs.String("output", "", "output file (stdout if empty)")
	fs.Parse(args)

	doc, err := loadSchema(*source)
	if err != nil {
		return err
	}
	if *theme != "" {
		doc.Styling.Theme = *theme
	}
	if *variant != "" {
		doc.Styling.Variant = *variant
	}

	renderer, err := preview.NewHTML()
	if err != nil {
		return err
	}
	html, err := renderer.Render(context.Background(), doc, preview.Options{})
	if err != nil {
		return err
	}
	return writeOutput(*output, html)
}

func runFill(args []string) error {
	fs := flag.NewFlagSet("fill", flag.ExitOnError)
	source := fs.String("schema", "form.json", "schema file (JSON or YAML)")
	output := fs.String("output", "", "answers file (stdout if empty)")
	fs.Parse(args)

	doc, err := loadSchema(*source)
	if err != nil {
		return err
	}

	answers, err := tui.New().Render(context.Background(), doc, preview.Options{})
	if err != nil {
		return err
	}
	return writeOutput(*output, answers)
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	source := fs.String("source", "openapi.yaml", "OpenAPI document path")
	operation := fs.String("operation", "", "operation id (or method:path, e.g. post:/pets)")
	output := fs.String("output", "", "schema file (stdout if empty)")
	fs.Parse(args)

	if *operation == "" {
		return fmt.Errorf("missing -operation")
	}
	raw, err := os.ReadFile(*source)
	if err != nil {
		return err
	}

	doc, err := importer.New().Import(context.Background(), raw, *operation)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(*output, append(encoded, '\n'))
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	secret := fs.String("jwt-secret", "", "HS256 secret; empty disables auth")
	fs.Parse(args)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	hub := live.NewHub(live.WithLogger(logger))

	opts := []reviews.OptionFn{
		reviews.WithLogger(logger),
		reviews.WithBroadcaster(hub),
	}
	if *secret != "" {
		opts = append(opts, reviews.WithGuard(reviews.JWTGuard([]byte(*secret))))
	}

	mux := http.NewServeMux()
	base, err := reviews.RegisterRoutes(mux, "", opts...)
	if err != nil {
		return err
	}
	mux.Handle("GET "+base+"/{id}/live", hub)
	mux.HandleFunc("GET /api/v1/fieldtypes", handleFieldTypes)
	mux.HandleFunc("POST /api/v1/preview", handlePreview)

	logger.Info("listening", "addr", *addr, "reviews", base)
	return http.ListenAndServe(*addr, mux)
}

// handleFieldTypes lists the palette for builder frontends.
func handleFieldTypes(w http.ResponseWriter, r *http.Request) {
	type paletteEntry struct {
		Type         schema.FieldType `json:"type"`
		Label        string           `json:"label"`
		Widget       string           `json:"widget"`
		InputMode    string           `json:"inputMode,omitempty"`
		NeedsOptions bool             `json:"needsOptions,omitempty"`
	}

	defs := fieldtypes.Palette()
	entries := make([]paletteEntry, 0, len(defs))
	for _, def := range defs {
		entries = append(entries, paletteEntry{
			Type:         def.Type,
			Label:        def.DefaultLabel,
			Widget:       def.Widget,
			InputMode:    def.InputMode,
			NeedsOptions: def.NeedsOptions,
		})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]any{"fieldTypes": entries})
}

// handlePreview renders a posted schema document to HTML.
func handlePreview(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read request body", http.StatusBadRequest)
		return
	}
	doc, err := schema.Parse(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	renderer, err := preview.NewHTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	html, err := renderer.Render(r.Context(), doc, preview.Options{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func loadSchema(path string) (*schema.FormSchema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.Parse(raw)
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("written to %s\n", path)
	return nil
}
