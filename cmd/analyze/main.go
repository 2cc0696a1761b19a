package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cvgenius-backend/internal/analyses"
	"cvgenius-backend/internal/config"
	"cvgenius-backend/internal/extract"
	"cvgenius-backend/internal/llm"
	"cvgenius-backend/internal/logger"
	"cvgenius-backend/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		exitErr(err.Error())
	}

	resumePath := flag.String("resume", "", "Path to resume file (pdf, docx, or txt)")
	jdPath := flag.String("jd", "", "Path to job description file")
	coverLetter := flag.Bool("cover-letter", false, "Also generate a cover letter")
	tone := flag.String("tone", "", "Cover letter tone (default professional)")
	outPath := flag.String("out", "", "Path to write JSON output (optional)")
	provider := flag.String("provider", cfg.Provider, "LLM provider (ollama or gemini)")
	model := flag.String("model", cfg.Model, "LLM model")
	flag.Parse()

	if strings.TrimSpace(*resumePath) == "" {
		exitErr("resume path is required")
	}
	if strings.TrimSpace(*jdPath) == "" {
		exitErr("job description path is required")
	}

	zl, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		exitErr(fmt.Sprintf("logger: %v", err))
	}
	defer zl.Sync() //nolint:errcheck
	zap.ReplaceGlobals(zl)

	resumeText, err := readText(*resumePath)
	if err != nil {
		exitErr(fmt.Sprintf("read resume: %v", err))
	}
	jobText, err := readText(*jdPath)
	if err != nil {
		exitErr(fmt.Sprintf("read job description: %v", err))
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(*provider))
	cfg.Model = *model
	backend, err := server.NewBackend(cfg)
	if err != nil {
		exitErr(err.Error())
	}

	svc := analyses.NewService(backend, analyses.NewCache(), cfg.Provider, zl)
	result, err := svc.Analyze(context.Background(), resumeText, jobText, analyses.Options{
		CoverLetter: *coverLetter,
		Tone:        *tone,
	})
	if err != nil {
		if hint := llm.RemediationHint(cfg.Provider, err); hint != "" {
			exitErr(fmt.Sprintf("analyze: %v\n%s", err, hint))
		}
		exitErr(fmt.Sprintf("analyze: %v", err))
	}

	pretty, err := prettyJSON(result)
	if err != nil {
		exitErr(fmt.Sprintf("format json: %v", err))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, pretty, 0o644); err != nil {
			exitErr(fmt.Sprintf("write output: %v", err))
		}
	}

	if _, err := os.Stdout.Write(pretty); err != nil {
		exitErr(fmt.Sprintf("write stdout: %v", err))
	}
	if len(pretty) == 0 || pretty[len(pretty)-1] != '\n' {
		_, _ = os.Stdout.Write([]byte("\n"))
	}
}

// readText loads a file and extracts plain text when it is a PDF or DOCX.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return extract.TextFromBytes(data, "", filepath.Base(path))
}

func prettyJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
