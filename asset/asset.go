package asset

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/config"
)

type Id string

// Outcome tells how a variant's bytes were obtained.
type Outcome string

const (
	// external tool produced a simplified copy at the requested fidelity
	OutcomePacked Outcome = "packed"
	// tool failed for this level, source bytes were substituted
	OutcomeFallback Outcome = "fallback"
	// tool unavailable entirely, set degraded to the source asset only
	OutcomeSource Outcome = "source"
)

type Asset struct {
	Id           Id        `json:"id"`
	OriginalName string    `json:"originalName"`
	DisplayName  string    `json:"displayName"`
	Size         int64     `json:"size"`
	Uploaded     time.Time `json:"uploaded"`
}

type Variant struct {
	Index    int     `json:"index"`
	Fidelity float32 `json:"fidelity"`
	Outcome  Outcome `json:"outcome"`
}

// VariantSet is immutable after intake: variants are never regenerated
// in place or reordered.
type VariantSet struct {
	Asset    Asset     `json:"asset"`
	Variants []Variant `json:"variants"`
	Stats    *Stats    `json:"stats,omitempty"`
}

// NewId derives an asset identifier from submission time and the
// original file name. Millisecond resolution keeps ids of back-to-back
// uploads distinct.
func NewId(t time.Time, originalName string) Id {
	t = t.UTC()
	return Id(fmt.Sprintf("%s-%03d-%s",
		t.Format("20060102T150405"), t.Nanosecond()/int(time.Millisecond),
		sanitizeName(originalName)))
}

func sanitizeName(name string) string {
	name = strings.ToLower(name)
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		name = name[:dot]
	}
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "model"
	}
	if len(s) > 48 {
		s = s[:48]
	}
	return s
}

// Extension returns the lowercased extension without the dot.
func Extension(name string) string {
	if dot := strings.LastIndexByte(name, '.'); dot >= 0 {
		return strings.ToLower(name[dot+1:])
	}
	return ""
}

// CheckExtension rejects container formats outside the allow-list
// before any bytes are stored.
func CheckExtension(name string) error {
	ext := Extension(name)
	for _, allowed := range config.AllowedExtensions() {
		if ext == allowed {
			return nil
		}
	}
	return errors.Errorf("File type %q is not allowed (expected one of %v)",
		ext, config.AllowedExtensions())
}

// SourceFileName is where the unmodified upload is kept.
func (a *Asset) SourceFileName() string {
	return fmt.Sprintf("%s.source.%s", a.Id, Extension(a.OriginalName))
}

// VariantFileName follows the fixed per-index naming scheme; retrieval
// paths are derived from it, never stored.
func VariantFileName(id Id, index int) string {
	return fmt.Sprintf("%s.lod%d.glb", id, index)
}

func (v *Variant) FileName(id Id) string {
	return VariantFileName(id, v.Index)
}

// URLPath is the path the variant bytes are retrievable at.
func (v *Variant) URLPath(id Id) string {
	return "/models/" + v.FileName(id)
}

// Paths lists retrieval locations in ascending fidelity order.
func (vs *VariantSet) Paths() []string {
	paths := make([]string, len(vs.Variants))
	for i := range vs.Variants {
		paths[i] = vs.Variants[i].URLPath(vs.Asset.Id)
	}
	return paths
}
