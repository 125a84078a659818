package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"mastersize-system/models"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// tallHeightCM is the height above which a garment-length caveat is added.
const tallHeightCM = 175.0

// sizeOrder is the canonical scale. Tie-breaks and fit shifts always walk
// this order, so results are deterministic across runs.
var sizeOrder = []string{"XS", "S", "M", "L", "XL", "XXL"}

func sizeIndex(label string) int {
	for i, s := range sizeOrder {
		if s == label {
			return i
		}
	}
	return len(sizeOrder)
}

// FitPreference is a closed enum; anything unrecognized parses as regular.
type FitPreference string

const (
	FitLoose   FitPreference = "loose"
	FitRegular FitPreference = "regular"
	FitTight   FitPreference = "tight"
)

func ParseFitPreference(s string) FitPreference {
	switch FitPreference(strings.ToLower(strings.TrimSpace(s))) {
	case FitLoose:
		return FitLoose
	case FitTight:
		return FitTight
	default:
		return FitRegular
	}
}

// Measurements is the subset of the profile the scorer reads. Nil or
// non-positive values are treated as "not supplied".
type Measurements struct {
	Height *float64
	Weight *float64
	Chest  *float64
	Waist  *float64
	Hips   *float64
}

func (m Measurements) value(param string) (float64, bool) {
	var v *float64
	switch param {
	case "chest":
		v = m.Chest
	case "waist":
		v = m.Waist
	case "hips":
		v = m.Hips
	case "height":
		v = m.Height
	case "weight":
		v = m.Weight
	}
	if v == nil || *v <= 0 {
		return 0, false
	}
	return *v, true
}

// Recommendation is the result of one size query.
type Recommendation struct {
	Size         string   `json:"size"`
	Confidence   float64  `json:"confidence"`
	Alternatives []string `json:"alternatives"`
	Notes        []string `json:"notes"`
}

// scoreParam rates one measurement against a range: 1.0 inside, otherwise
// 1 minus half the relative overshoot, floored at zero.
func scoreParam(v float64, r SizeRange) float64 {
	if v >= r.Min && v <= r.Max {
		return 1.0
	}
	var penalty float64
	if v < r.Min {
		penalty = (r.Min - v) / r.Min
	} else {
		penalty = (v - r.Max) / r.Max
	}
	return math.Max(0, 1.0-penalty*0.5)
}

// Recommend scores every size in the table against the supplied
// measurements and picks the argmax. Score ties resolve to the smaller
// size on the canonical scale. The fit preference then shifts the pick
// one step along the sizes present in the table, clamped at the ends.
func Recommend(m Measurements, table SizeTable, pref FitPreference) (*Recommendation, error) {
	scores := make(map[string]float64, len(table))
	for label, params := range table {
		var sum float64
		n := 0
		for param, r := range params {
			v, ok := m.value(param)
			if !ok {
				continue
			}
			sum += scoreParam(v, r)
			n++
		}
		if n > 0 {
			scores[label] = sum / float64(n)
		}
	}
	if len(scores) == 0 {
		return nil, ErrInsufficientMeasurements
	}

	ranked := rankSizes(scores)
	best := ranked[0]
	final := shiftForFit(best, pref, ranked)

	alternatives := make([]string, 0, 2)
	for _, label := range ranked {
		if label == final {
			continue
		}
		alternatives = append(alternatives, label)
		if len(alternatives) == 2 {
			break
		}
	}

	var notes []string
	if final != best {
		notes = append(notes, fmt.Sprintf("Size adjusted from %s to %s for a %s fit", best, final, pref))
	}
	if m.Height != nil && *m.Height > tallHeightCM {
		notes = append(notes, "Given your height, double-check the garment length")
	}

	return &Recommendation{
		Size:         final,
		Confidence:   math.Round(scores[best]*100) / 100,
		Alternatives: alternatives,
		Notes:        notes,
	}, nil
}

// rankSizes orders labels by descending score; equal scores order by the
// canonical scale, smaller size first.
func rankSizes(scores map[string]float64) []string {
	labels := make([]string, 0, len(scores))
	for label := range scores {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if scores[labels[i]] != scores[labels[j]] {
			return scores[labels[i]] > scores[labels[j]]
		}
		a, b := sizeIndex(labels[i]), sizeIndex(labels[j])
		if a != b {
			return a < b
		}
		return labels[i] < labels[j]
	})
	return labels
}

// shiftForFit moves one step along the scored sizes, ordered on the
// canonical scale. No-op for regular, or when already at the edge.
func shiftForFit(best string, pref FitPreference, scored []string) string {
	if pref == FitRegular {
		return best
	}
	available := append([]string(nil), scored...)
	sort.Slice(available, func(i, j int) bool {
		a, b := sizeIndex(available[i]), sizeIndex(available[j])
		if a != b {
			return a < b
		}
		return available[i] < available[j]
	})
	pos := 0
	for i, label := range available {
		if label == best {
			pos = i
			break
		}
	}
	switch pref {
	case FitLoose:
		if pos < len(available)-1 {
			return available[pos+1]
		}
	case FitTight:
		if pos > 0 {
			return available[pos-1]
		}
	}
	return best
}

// SizeService resolves a user profile against the chart catalog and
// records every successful recommendation.
type SizeService struct {
	DB     *gorm.DB
	Charts *ChartCatalog
}

func NewSizeService(db *gorm.DB, charts *ChartCatalog) *SizeService {
	return &SizeService{DB: db, Charts: charts}
}

// RecommendForUser runs the scorer for a stored profile. The audit row
// is best-effort: a failed insert is logged and never fails the call.
func (s *SizeService) RecommendForUser(ctx context.Context, externalUserID, brand, clothingType string, pref FitPreference) (*Recommendation, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("external_user_id = ?", externalUserID).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %s: %w", externalUserID, err)
	}
	if !user.OnboardingCompleted {
		return nil, ErrProfileIncomplete
	}

	gender := "men"
	if user.Gender != nil && normalizeToken(*user.Gender) == "female" {
		gender = "women"
	}

	table, err := s.Charts.Lookup(brand, gender, CategoryFor(clothingType))
	if err != nil {
		return nil, err
	}

	rec, err := Recommend(Measurements{
		Height: user.Height,
		Weight: user.Weight,
		Chest:  user.Chest,
		Waist:  user.Waist,
		Hips:   user.Hips,
	}, table, pref)
	if err != nil {
		return nil, err
	}

	brandDisplay := cases.Title(language.English).String(normalizeBrandKey(brand))
	audit := models.SizeRecommendation{
		ID:              uuid.NewString(),
		ExternalUserID:  externalUserID,
		Brand:           brandDisplay,
		ClothingType:    clothingType,
		RecommendedSize: rec.Size,
		Confidence:      rec.Confidence,
		Notes:           strings.Join(rec.Notes, "; "),
	}
	if err := s.DB.WithContext(ctx).Create(&audit).Error; err != nil {
		log.Printf("⚠️ failed to record size recommendation for %s: %v", externalUserID, err)
	}

	return rec, nil
}

// History returns the most recent audit rows for a user.
func (s *SizeService) History(ctx context.Context, externalUserID string, limit int) ([]models.SizeRecommendation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.SizeRecommendation
	err := s.DB.WithContext(ctx).
		Where("external_user_id = ?", externalUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recommendation history: %w", err)
	}
	return rows, nil
}
