// Package manifest loads raw source units from a YAML manifest file. The
// manifest lists pre-retrieved payload files together with the provenance
// metadata the pipeline cannot recover from the payloads themselves.
package manifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"abyssal-tome/internal/domain/entity"
)

// unitSpec is one manifest entry. Path is resolved relative to the manifest
// file unless absolute.
type unitSpec struct {
	Kind       string `yaml:"kind"`
	Path       string `yaml:"path"`
	Origin     string `yaml:"origin"`
	CardCode   string `yaml:"card_code"`
	SourceName string `yaml:"source_name"`
	SourceDate string `yaml:"source_date"`
	// Supersedes names the path of another unit in the same manifest that
	// this unit explicitly updates (a reprinted FAQ, a corrected errata).
	Supersedes string `yaml:"supersedes"`
}

type manifestFile struct {
	Units []unitSpec `yaml:"units"`
}

// Load reads a manifest and materializes its units. A malformed manifest or
// an unknown unit kind is an error; an unreadable payload file is skipped
// with a warning so one missing export does not block a regeneration run.
func Load(path string) ([]entity.RawSourceUnit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var mf manifestFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(mf.Units) == 0 {
		return nil, fmt.Errorf("manifest %s lists no units", path)
	}

	baseDir := filepath.Dir(path)
	now := time.Now().UTC()

	keyByPath, err := provenanceKeys(mf.Units, baseDir)
	if err != nil {
		return nil, err
	}

	units := make([]entity.RawSourceUnit, 0, len(mf.Units))
	for i, spec := range mf.Units {
		kind, err := parseKind(spec.Kind)
		if err != nil {
			return nil, fmt.Errorf("manifest unit %d: %w", i, err)
		}
		if spec.Path == "" {
			return nil, fmt.Errorf("manifest unit %d: path is required", i)
		}

		supersedes := ""
		if spec.Supersedes != "" {
			key, ok := keyByPath[spec.Supersedes]
			if !ok {
				return nil, fmt.Errorf("manifest unit %d: supersedes %q names no unit in this manifest", i, spec.Supersedes)
			}
			supersedes = key
		}

		payloadPath := resolvePayloadPath(spec.Path, baseDir)
		payload, err := os.ReadFile(payloadPath)
		if err != nil {
			slog.Warn("skipping unreadable payload",
				slog.String("path", payloadPath),
				slog.Any("error", err))
			continue
		}

		units = append(units, entity.RawSourceUnit{
			Kind:        kind,
			Origin:      defaultOrigin(spec, payloadPath),
			Payload:     string(payload),
			CardCode:    spec.CardCode,
			SourceName:  spec.SourceName,
			SourceDate:  spec.SourceDate,
			Retriever:   "manifest",
			RetrievedAt: now,
			Supersedes:  supersedes,
		})
	}

	return units, nil
}

// provenanceKeys maps each unit's manifest path to the provenance key its
// drafts will carry, so supersedes references can be resolved up front.
func provenanceKeys(specs []unitSpec, baseDir string) (map[string]string, error) {
	keys := make(map[string]string, len(specs))
	for i, spec := range specs {
		if spec.Path == "" {
			continue
		}
		if _, dup := keys[spec.Path]; dup {
			return nil, fmt.Errorf("manifest unit %d: duplicate path %q", i, spec.Path)
		}
		payloadPath := resolvePayloadPath(spec.Path, baseDir)
		prov := entity.Provenance{
			SourceType: spec.Kind,
			SourceName: spec.SourceName,
			SourceURL:  defaultOrigin(spec, payloadPath),
		}
		keys[spec.Path] = prov.Key()
	}
	return keys, nil
}

func resolvePayloadPath(specPath, baseDir string) string {
	if filepath.IsAbs(specPath) {
		return specPath
	}
	return filepath.Join(baseDir, specPath)
}

func defaultOrigin(spec unitSpec, payloadPath string) string {
	if spec.Origin != "" {
		return spec.Origin
	}
	return "file://" + payloadPath
}

func parseKind(kind string) (entity.RawSourceKind, error) {
	switch entity.RawSourceKind(kind) {
	case entity.RawKindHTML, entity.RawKindText, entity.RawKindRSS:
		return entity.RawSourceKind(kind), nil
	}
	return "", fmt.Errorf("unknown unit kind %q", kind)
}
