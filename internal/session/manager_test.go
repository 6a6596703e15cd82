package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voice_agent/internal/directory"
	"voice_agent/internal/model"
)

type failingDirectory struct{}

func (failingDirectory) Save(context.Context, string, string, model.FactSet) (bool, error) {
	return false, errors.New("disk full")
}

func (failingDirectory) Find(context.Context, string, string) (model.FactSet, bool, error) {
	return model.FactSet{}, false, errors.New("disk full")
}

func (failingDirectory) ListAll(context.Context) (map[string]model.FactSet, error) {
	return nil, errors.New("disk full")
}

func newManager(window int) (*Manager, *directory.Memory) {
	dir := directory.NewMemory()
	return NewManager(NewMemoryRepository(), dir, window), dir
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(20)

	first, err := m.GetOrCreate(ctx, "s1", "hotel")
	require.NoError(t, err)
	second, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)

	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, "hotel", second.BusinessID)

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAddTurnKeepsWindow(t *testing.T) {
	ctx := context.Background()
	const window = 20
	m, _ := newManager(window)
	_, err := m.GetOrCreate(ctx, "s1", "hotel")
	require.NoError(t, err)

	for i := 0; i < window+5; i++ {
		require.NoError(t, m.AddTurn(ctx, "s1", model.RoleCustomer, fmt.Sprintf("turn %d", i)))
	}

	s, ok, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, s.Turns, window)
	assert.Equal(t, "turn 5", s.Turns[0].Text)
	assert.Equal(t, fmt.Sprintf("turn %d", window+4), s.Turns[window-1].Text)
}

func TestUpdateFactsFiltersAndNormalises(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)

	accepted, err := m.UpdateFacts(ctx, "s1", model.NewFactSet(
		"Party Size", "4",
		"phone", "  ",
		"email", "None",
		"seating-preference", "terrace",
		"budget", "unknown",
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"party_size", "seating_preference"}, accepted.Keys())

	s, _, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "4", s.Facts.Value(model.FactPartySize))
	assert.False(t, s.Facts.Has(model.FactPhone))
}

func TestUpdateFactsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, dir := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)

	facts := model.NewFactSet(model.FactName, "Maria", model.FactPartySize, "4")
	_, err = m.UpdateFacts(ctx, "s1", facts)
	require.NoError(t, err)
	once, _, err := m.Get(ctx, "s1")
	require.NoError(t, err)

	_, err = m.UpdateFacts(ctx, "s1", facts)
	require.NoError(t, err)
	twice, _, err := m.Get(ctx, "s1")
	require.NoError(t, err)

	assert.Equal(t, once.Facts.Map(), twice.Facts.Map())
	assert.Equal(t, once.CreatedEntries, twice.CreatedEntries)

	all, err := dir.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateFactsWritesBackOnlyWithMoreThanName(t *testing.T) {
	ctx := context.Background()
	m, dir := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)

	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactName, "Maria Lopez"))
	require.NoError(t, err)
	_, found, err := dir.Find(ctx, "maria lopez", "restaurant")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactPhone, "555-123-4567"))
	require.NoError(t, err)
	stored, found, err := dir.Find(ctx, "maria lopez", "restaurant")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "555-123-4567", stored.Value(model.FactPhone))

	s, _, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"restaurant:maria lopez"}, s.CreatedEntries)
}

func TestUpdateFactsIntentFlagsAloneAreNotSaved(t *testing.T) {
	ctx := context.Background()
	m, dir := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)

	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(
		model.FactName, "John",
		model.FactWantsToBook, model.FactTrue,
		model.FactClaimsExistingReservation, model.FactTrue,
	))
	require.NoError(t, err)
	_, found, err := dir.Find(ctx, "john", "restaurant")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactPartySize, "2"))
	require.NoError(t, err)
	stored, found, err := dir.Find(ctx, "john", "restaurant")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, model.FactTrue, stored.Value(model.FactWantsToBook))
	assert.Equal(t, "2", stored.Value(model.FactPartySize))
}

func TestLookupAndMergePrecedence(t *testing.T) {
	ctx := context.Background()
	m, dir := newManager(20)
	_, err := dir.Save(ctx, "Maria", "restaurant", model.NewFactSet(
		model.FactPartySize, "2",
		model.FactPhone, "555-123-4567",
	))
	require.NoError(t, err)

	_, err = m.GetOrCreate(ctx, "s2", "restaurant")
	require.NoError(t, err)
	_, err = m.UpdateFacts(ctx, "s2", model.NewFactSet(model.FactName, "Maria", model.FactPartySize, "4"))
	require.NoError(t, err)

	found, err := m.LookupAndMerge(ctx, "s2", "maria")
	require.NoError(t, err)
	assert.True(t, found)

	s, _, err := m.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, "4", s.Facts.Value(model.FactPartySize), "session value wins")
	assert.Equal(t, "555-123-4567", s.Facts.Value(model.FactPhone), "missing value restored")
	assert.True(t, s.IsReturningCustomer)
}

func TestLookupOfOwnEntryIsNotReturning(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "salon")
	require.NoError(t, err)
	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactName, "Ana", model.FactServiceInterest, "haircut"))
	require.NoError(t, err)

	found, err := m.LookupAndMerge(ctx, "s1", "Ana")
	require.NoError(t, err)
	assert.True(t, found)

	s, _, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, s.IsReturningCustomer)

	found, err = m.LookupAndMerge(ctx, "s1", "Nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDirectoryFailuresAreAbsorbed(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryRepository(), failingDirectory{}, 20)
	_, err := m.GetOrCreate(ctx, "s1", "gym")
	require.NoError(t, err)

	accepted, err := m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactName, "Sam", model.FactMembershipType, "Premium"))
	require.NoError(t, err)
	assert.Equal(t, 2, accepted.Len())

	found, err := m.LookupAndMerge(ctx, "s1", "Sam")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestContextSummary(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)

	summary, err := m.ContextSummary(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, summary)

	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactPartySize, "4", model.FactReservationDate, "tomorrow", "_internal", "x"))
	require.NoError(t, err)

	summary, err = m.ContextSummary(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "[CUSTOMER INFORMATION]\n"+
		"• Party Size: 4\n"+
		"• Reservation Date: tomorrow\n\n"+
		"[Use this information in your response. If asked about these details, provide them.]", summary)

	s, _, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	s.IsReturningCustomer = true
	assert.Contains(t, Summary(s), "[RETURNING CUSTOMER - Found in our records!]")
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(20)
	_, err := m.GetOrCreate(ctx, "s1", "hotel")
	require.NoError(t, err)
	require.NoError(t, m.Reset(ctx, "s1"))

	_, ok, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	err = m.AddTurn(ctx, "s1", model.RoleAgent, "hello")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisRepository(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	repo := NewRedisRepository(client, time.Minute)
	m := NewManager(repo, directory.NewRedis(client), 20)

	_, err := m.GetOrCreate(ctx, "s1", "restaurant")
	require.NoError(t, err)
	require.NoError(t, m.AddTurn(ctx, "s1", model.RoleCustomer, "table for 4"))
	_, err = m.UpdateFacts(ctx, "s1", model.NewFactSet(model.FactName, "Maria", model.FactPartySize, "4"))
	require.NoError(t, err)

	s, ok, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{model.FactName, model.FactPartySize}, s.Facts.Keys())
	assert.Equal(t, "table for 4", s.Turns[0].Text)
	assert.Equal(t, time.Minute, mr.TTL("session:s1"))

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists("customer:restaurant:maria"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}
