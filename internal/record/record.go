package record

import (
	"math"
	"slices"
)

// ScoreScale is the scale every in-memory score is expressed on.
const ScoreScale = 100

// Source names a catalog whose results a Store holds.
type Source string

const (
	SourceMAL     Source = "mal"
	SourceAniList Source = "anilist"
)

// LegacyScale is the score scale older stores of this source used.
func (s Source) LegacyScale() int {
	if s == SourceMAL {
		return 10
	}
	return ScoreScale
}

// Other returns the opposite catalog.
func (s Source) Other() Source {
	if s == SourceMAL {
		return SourceAniList
	}
	return SourceMAL
}

// Record is the resolved metadata for one title key from one source.
type Record struct {
	AniListID  *int     `json:"anilist_id" yaml:"anilist_id"`
	MALID      *int     `json:"mal_id" yaml:"mal_id"`
	Duration   *int     `json:"duration" yaml:"duration"`
	Episodes   *int     `json:"episodes" yaml:"episodes"`
	Genres     []string `json:"genres" yaml:"genres"`
	Image      string   `json:"image" yaml:"image"`
	IsAdult    *bool    `json:"is_adult" yaml:"is_adult"`
	Rating     *string  `json:"rating" yaml:"rating"`
	Score      *float64 `json:"score" yaml:"score"`
	ScoreScale int      `json:"score_scale,omitempty" yaml:"score_scale,omitempty"`
	Studios    []string `json:"studios" yaml:"studios"`
	Title      string   `json:"title" yaml:"title"`
	Type       *string  `json:"type" yaml:"type"`
	Year       *int     `json:"year" yaml:"year"`
	Aired      *string  `json:"aired" yaml:"aired"`
	FullPath   string   `json:"fullpath" yaml:"fullpath"`
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.AniListID = clonePtr(r.AniListID)
	out.MALID = clonePtr(r.MALID)
	out.Duration = clonePtr(r.Duration)
	out.Episodes = clonePtr(r.Episodes)
	out.Genres = slices.Clone(r.Genres)
	out.IsAdult = clonePtr(r.IsAdult)
	out.Rating = clonePtr(r.Rating)
	out.Score = clonePtr(r.Score)
	out.Studios = slices.Clone(r.Studios)
	out.Type = clonePtr(r.Type)
	out.Year = clonePtr(r.Year)
	out.Aired = clonePtr(r.Aired)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsEmpty reports whether nothing but the filesystem path is known.
func (r Record) IsEmpty() bool {
	return len(r.MissingFields()) == len(metadataFields)
}

// MissingFields returns the JSON names of absent metadata fields.
func (r Record) MissingFields() []string {
	var missing []string
	for _, f := range metadataFields {
		if !f.present(&r) {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// FillFrom copies every field absent in r but present in other. It never
// overwrites a present value and returns the JSON names of filled fields.
func (r *Record) FillFrom(other Record) []string {
	var filled []string
	for _, f := range allFields {
		if f.fill(r, &other) {
			filled = append(filled, f.name)
		}
	}
	if slices.Contains(filled, "score") {
		r.ScoreScale = ScoreScale
	}
	return filled
}

// NormalizeScore rescales the score to ScoreScale. A record with no
// score_scale is read with legacyScale, except that a value above 10 can only
// have come from a 0-100 source.
func (r *Record) NormalizeScore(legacyScale int) {
	scale := r.ScoreScale
	r.ScoreScale = ScoreScale
	if r.Score == nil {
		return
	}
	if scale <= 0 {
		scale = legacyScale
		if scale < ScoreScale && *r.Score > float64(scale) {
			scale = ScoreScale
		}
	}
	if scale <= 0 || scale == ScoreScale {
		return
	}
	scaled := math.Round(*r.Score*ScoreScale/float64(scale)*100) / 100
	r.Score = &scaled
}

type field struct {
	name    string
	present func(*Record) bool
	fill    func(dst, src *Record) bool
}

func ptrField[T any](name string, get func(*Record) **T) field {
	return field{
		name:    name,
		present: func(r *Record) bool { return *get(r) != nil },
		fill: func(dst, src *Record) bool {
			d, s := get(dst), get(src)
			if *d != nil || *s == nil {
				return false
			}
			*d = clonePtr(*s)
			return true
		},
	}
}

func sliceField(name string, get func(*Record) *[]string) field {
	return field{
		name:    name,
		present: func(r *Record) bool { return len(*get(r)) > 0 },
		fill: func(dst, src *Record) bool {
			d, s := get(dst), get(src)
			if len(*d) > 0 || len(*s) == 0 {
				return false
			}
			*d = slices.Clone(*s)
			return true
		},
	}
}

func stringField(name string, get func(*Record) *string) field {
	return field{
		name:    name,
		present: func(r *Record) bool { return *get(r) != "" },
		fill: func(dst, src *Record) bool {
			d, s := get(dst), get(src)
			if *d != "" || *s == "" {
				return false
			}
			*d = *s
			return true
		},
	}
}

var metadataFields = []field{
	ptrField("anilist_id", func(r *Record) **int { return &r.AniListID }),
	ptrField("mal_id", func(r *Record) **int { return &r.MALID }),
	ptrField("duration", func(r *Record) **int { return &r.Duration }),
	ptrField("episodes", func(r *Record) **int { return &r.Episodes }),
	sliceField("genres", func(r *Record) *[]string { return &r.Genres }),
	stringField("image", func(r *Record) *string { return &r.Image }),
	ptrField("is_adult", func(r *Record) **bool { return &r.IsAdult }),
	ptrField("rating", func(r *Record) **string { return &r.Rating }),
	ptrField("score", func(r *Record) **float64 { return &r.Score }),
	sliceField("studios", func(r *Record) *[]string { return &r.Studios }),
	stringField("title", func(r *Record) *string { return &r.Title }),
	ptrField("type", func(r *Record) **string { return &r.Type }),
	ptrField("year", func(r *Record) **int { return &r.Year }),
	ptrField("aired", func(r *Record) **string { return &r.Aired }),
}

var allFields = append(slices.Clone(metadataFields),
	stringField("fullpath", func(r *Record) *string { return &r.FullPath }),
)
