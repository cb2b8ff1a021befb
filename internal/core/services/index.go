package services

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/domain"
)

// Tier is one lookup strategy: a pure function from a candidate stem to a
// record. Tiers report found=false rather than guessing.
type Tier func(stem string) (*domain.MemoryRecord, bool)

// Index re-associates a physical filename or remote asset name back to its
// MemoryRecord. Four tiers are tried in fixed priority order:
//
//  1. exact match on the downloaded file's base name (set after fetch)
//  2. exact match on the derived filename
//  3. date-key substring, disambiguated by ordinal token and media type
//  4. bare ordinal token (_NNNN or memory_N)
//
// A candidate matching no tier is unmatched; callers treat that as skip.
type Index struct {
	tiers []Tier
}

// BuildIndex constructs the lookup index over a bundle's records.
func BuildIndex(bundle *domain.MetadataBundle) *Index {
	records := bundle.Records

	byDownloaded := make(map[string]*domain.MemoryRecord)
	byDerived := make(map[string]*domain.MemoryRecord)
	byDateKey := make(map[string][]*domain.MemoryRecord)
	byOrdinal := make(map[int]*domain.MemoryRecord)

	for i := range records {
		rec := &records[i]
		if rec.DownloadedFile != "" {
			byDownloaded[stem(rec.DownloadedFile)] = rec
		}
		if rec.DerivedFilename != "" {
			byDerived[rec.DerivedFilename] = rec
		}
		if rec.DateKey != "" {
			byDateKey[rec.DateKey] = append(byDateKey[rec.DateKey], rec)
		}
		if rec.Ordinal > 0 {
			byOrdinal[rec.Ordinal] = rec
		}
	}

	return &Index{tiers: []Tier{
		mapTier(byDownloaded),
		mapTier(byDerived),
		dateKeyTier(byDateKey),
		ordinalTier(byOrdinal),
	}}
}

// Resolve looks a candidate name up through the tier chain. The candidate
// may be a full path or carry an extension; only the stem is matched.
func (ix *Index) Resolve(candidate string) (*domain.MemoryRecord, bool) {
	s := stem(candidate)
	if s == "" {
		return nil, false
	}
	for _, tier := range ix.tiers {
		if rec, ok := tier(s); ok {
			return rec, true
		}
	}
	return nil, false
}

// stem reduces a path or filename to its extension-less base name.
func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func mapTier(m map[string]*domain.MemoryRecord) Tier {
	return func(s string) (*domain.MemoryRecord, bool) {
		rec, ok := m[s]
		return rec, ok
	}
}

var (
	dateKeyToken = regexp.MustCompile(`(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})`)
	// Trailing 4-digit ordinal, with or without the _gps suffix.
	trailingOrdinal = regexp.MustCompile(`_(\d{4})(?:_gps)?$`)
	ordinalToken    = regexp.MustCompile(`_(\d{4})(?:_gps)?(?:$|[._])`)
	memoryToken     = regexp.MustCompile(`memory_(\d+)`)
)

// dateKeyTier matches on an embedded date-key token. Same-second captures
// share a date key, so ties are broken by the candidate's ordinal token,
// then by media-type token; an unresolved tie stays unmatched.
func dateKeyTier(byDateKey map[string][]*domain.MemoryRecord) Tier {
	return func(s string) (*domain.MemoryRecord, bool) {
		m := dateKeyToken.FindStringSubmatch(s)
		if m == nil {
			return nil, false
		}
		group := byDateKey[m[1]]
		if len(group) == 0 {
			return nil, false
		}

		if om := trailingOrdinal.FindStringSubmatch(s); om != nil {
			ordinal, _ := strconv.Atoi(om[1])
			for _, rec := range group {
				if rec.Ordinal == ordinal {
					return rec, true
				}
			}
			return nil, false
		}

		if len(group) == 1 {
			return group[0], true
		}

		if mt, ok := mediaTypeToken(s); ok {
			var filtered []*domain.MemoryRecord
			for _, rec := range group {
				if rec.MediaType == mt {
					filtered = append(filtered, rec)
				}
			}
			if len(filtered) == 1 {
				return filtered[0], true
			}
		}
		return nil, false
	}
}

// ordinalTier is the last resort: a bare 4-digit ordinal token or a
// memory_N style name.
func ordinalTier(byOrdinal map[int]*domain.MemoryRecord) Tier {
	return func(s string) (*domain.MemoryRecord, bool) {
		if m := memoryToken.FindStringSubmatch(s); m != nil {
			if ordinal, err := strconv.Atoi(m[1]); err == nil {
				rec, ok := byOrdinal[ordinal]
				return rec, ok
			}
		}
		if m := ordinalToken.FindStringSubmatch(s); m != nil {
			if ordinal, err := strconv.Atoi(m[1]); err == nil {
				rec, ok := byOrdinal[ordinal]
				return rec, ok
			}
		}
		return nil, false
	}
}

// mediaTypeToken spots a media-type word inside a candidate name.
func mediaTypeToken(s string) (domain.MediaType, bool) {
	switch {
	case strings.Contains(s, string(domain.MediaVideo)):
		return domain.MediaVideo, true
	case strings.Contains(s, string(domain.MediaImage)):
		return domain.MediaImage, true
	}
	return "", false
}
