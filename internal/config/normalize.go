package config

import (
	"strings"

	"git.home.luguber.info/inful/staticrender/internal/foundation/normalization"
)

var targetNormalizer = normalization.NewNormalizer("target", map[string]string{
	"node":    TargetNode,
	"web":     TargetWeb,
	"browser": TargetWeb,
}, TargetWeb)

var libraryTargetNormalizer = normalization.NewNormalizer("library target", map[string]string{
	"commonjs2": LibraryTargetCommonJS2,
	"commonjs":  LibraryTargetCommonJS,
	"cjs":       LibraryTargetCommonJS,
	"module":    LibraryTargetModule,
	"esm":       LibraryTargetModule,
	"var":       LibraryTargetVar,
	"iife":      LibraryTargetVar,
}, LibraryTargetVar)

// NormalizeTarget returns the canonical execution target for raw.
func NormalizeTarget(raw string) (string, error) {
	return targetNormalizer.NormalizeWithError(raw)
}

// NormalizeLibraryTarget returns the canonical library target for raw.
func NormalizeLibraryTarget(raw string) (string, error) {
	return libraryTargetNormalizer.NormalizeWithError(raw)
}

// normalizeBuild case-folds enumerations in b. Empty values stay empty so
// defaults and override merges can tell them apart from explicit ones.
func normalizeBuild(b *BuildConfig) error {
	if b == nil {
		return nil
	}
	if strings.TrimSpace(b.Target) != "" {
		t, err := NormalizeTarget(b.Target)
		if err != nil {
			return err
		}
		b.Target = t
	}
	if strings.TrimSpace(b.Output.LibraryTarget) != "" {
		lt, err := NormalizeLibraryTarget(b.Output.LibraryTarget)
		if err != nil {
			return err
		}
		b.Output.LibraryTarget = lt
	}
	b.Mode = strings.ToLower(strings.TrimSpace(b.Mode))
	return nil
}

// NormalizeConfig case-folds enumerations across cfg.
func NormalizeConfig(cfg *Config) error {
	if err := normalizeBuild(&cfg.Build); err != nil {
		return err
	}
	if err := normalizeBuild(cfg.StaticRender.SubBuild); err != nil {
		return err
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	return nil
}
