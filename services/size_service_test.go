package services

import (
	"context"
	"testing"

	"mastersize-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func womenTops(t *testing.T) SizeTable {
	t.Helper()
	table, err := DefaultChartCatalog().Lookup("zara", "women", "tops")
	require.NoError(t, err)
	return table
}

func TestRecommendPerfectFit(t *testing.T) {
	rec, err := Recommend(Measurements{Chest: f(90), Waist: f(70)}, womenTops(t), FitRegular)
	require.NoError(t, err)
	assert.Equal(t, "M", rec.Size)
	assert.Equal(t, 1.0, rec.Confidence)
	assert.Len(t, rec.Alternatives, 2)
	assert.Empty(t, rec.Notes)
}

func TestRecommendPrefersContainingRange(t *testing.T) {
	// chest 94 sits inside L's range and above M's; L must win.
	rec, err := Recommend(Measurements{Chest: f(94)}, womenTops(t), FitRegular)
	require.NoError(t, err)
	assert.Equal(t, "L", rec.Size)
}

func TestRecommendTieBreaksToSmallerSize(t *testing.T) {
	table := SizeTable{
		"S": {"chest": SizeRange{Min: 84, Max: 88}},
		"M": {"chest": SizeRange{Min: 88, Max: 92}},
	}
	// chest 88 is inside both ranges: a perfect tie.
	for i := 0; i < 10; i++ {
		rec, err := Recommend(Measurements{Chest: f(88)}, table, FitRegular)
		require.NoError(t, err)
		assert.Equal(t, "S", rec.Size)
	}
}

func TestRecommendLooseShiftsUp(t *testing.T) {
	rec, err := Recommend(Measurements{Chest: f(90), Waist: f(70)}, womenTops(t), FitLoose)
	require.NoError(t, err)
	assert.Equal(t, "L", rec.Size)
	require.Len(t, rec.Notes, 1)
	assert.Contains(t, rec.Notes[0], "adjusted from M to L")
}

func TestRecommendTightAtSmallestIsNoOp(t *testing.T) {
	// chest 81 lands in XS; tight cannot go below the smallest size.
	rec, err := Recommend(Measurements{Chest: f(81)}, womenTops(t), FitTight)
	require.NoError(t, err)
	assert.Equal(t, "XS", rec.Size)
}

func TestRecommendAlternativesDescending(t *testing.T) {
	rec, err := Recommend(Measurements{Chest: f(90), Waist: f(70)}, womenTops(t), FitRegular)
	require.NoError(t, err)
	// L's ranges sit closer to the measurements than S's, so it ranks
	// first among the runners-up.
	assert.Equal(t, []string{"L", "S"}, rec.Alternatives)
}

func TestRecommendInsufficientMeasurements(t *testing.T) {
	_, err := Recommend(Measurements{Hips: f(95)}, womenTops(t), FitRegular)
	require.ErrorIs(t, err, ErrInsufficientMeasurements)
}

func TestRecommendTallNote(t *testing.T) {
	rec, err := Recommend(Measurements{Chest: f(90), Waist: f(70), Height: f(182)}, womenTops(t), FitRegular)
	require.NoError(t, err)
	require.Len(t, rec.Notes, 1)
	assert.Contains(t, rec.Notes[0], "height")
}

func TestParseFitPreference(t *testing.T) {
	assert.Equal(t, FitLoose, ParseFitPreference("Loose"))
	assert.Equal(t, FitTight, ParseFitPreference(" tight "))
	assert.Equal(t, FitRegular, ParseFitPreference("regular"))
	assert.Equal(t, FitRegular, ParseFitPreference("baggy"))
	assert.Equal(t, FitRegular, ParseFitPreference(""))
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "bottoms", CategoryFor("Jeans"))
	assert.Equal(t, "bottoms", CategoryFor("mini skirt"))
	assert.Equal(t, "tops", CategoryFor("tshirt"))
	assert.Equal(t, "tops", CategoryFor("something else"))
}

func TestRecommendForUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewSizeService(db, DefaultChartCatalog())
	seedUser(t, db, "alice", withOnboardingDone(), withProfile("female", 170, 90, 70, 0))

	rec, err := svc.RecommendForUser(context.Background(), "alice", "Zara", "tshirt", FitRegular)
	require.NoError(t, err)
	assert.Equal(t, "M", rec.Size)

	// Every successful call appends one audit row.
	var rows []models.SizeRecommendation
	require.NoError(t, db.Where("external_user_id = ?", "alice").Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Zara", rows[0].Brand)
	assert.Equal(t, "M", rows[0].RecommendedSize)
	assert.Equal(t, 1.0, rows[0].Confidence)
}

func TestRecommendForUserProfileIncomplete(t *testing.T) {
	db := newTestDB(t)
	svc := NewSizeService(db, DefaultChartCatalog())
	seedUser(t, db, "alice", withProfile("female", 170, 90, 70, 0))

	_, err := svc.RecommendForUser(context.Background(), "alice", "zara", "tshirt", FitRegular)
	require.ErrorIs(t, err, ErrProfileIncomplete)
}

func TestRecommendForUserChartNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewSizeService(db, DefaultChartCatalog())
	seedUser(t, db, "alice", withOnboardingDone(), withProfile("female", 170, 90, 70, 0))
	seedUser(t, db, "bob", withOnboardingDone(), withProfile("male", 180, 96, 80, 0))

	_, err := svc.RecommendForUser(context.Background(), "alice", "unknown-brand", "tshirt", FitRegular)
	require.ErrorIs(t, err, ErrChartNotFound)

	// hm only carries women's charts in the built-in set.
	_, err = svc.RecommendForUser(context.Background(), "bob", "hm", "tshirt", FitRegular)
	require.ErrorIs(t, err, ErrChartNotFound)
}

func TestRecommendForUserUnknown(t *testing.T) {
	db := newTestDB(t)
	svc := NewSizeService(db, DefaultChartCatalog())

	_, err := svc.RecommendForUser(context.Background(), "ghost", "zara", "tshirt", FitRegular)
	require.ErrorIs(t, err, ErrUserNotFound)
}
