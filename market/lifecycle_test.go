package market

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clawstreetbets/models"
)

type recordingPublisher struct {
	mu    sync.Mutex
	posts []string
}

func (p *recordingPublisher) Enqueue(title, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.posts = append(p.posts, title)
}

func TestCreateMarketRequiresTwoOutcomes(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil, nil)
	creator := newTestAgent(t, db, "creator")

	_, err := svc.CreateMarket(creator, CreateMarketInput{
		Title:          "One-sided",
		ResolutionDate: time.Now().Add(time.Hour),
		Outcomes:       []string{"Only"},
	})
	assert.ErrorIs(t, err, ErrTooFewOutcomes)

	m, err := svc.CreateMarket(creator, CreateMarketInput{
		Title:          "Two-sided",
		ResolutionDate: time.Now().Add(time.Hour),
		Outcomes:       []string{"Yes", "No"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MarketOpen, m.Status)
	assert.Zero(t, m.VoteCount)
	assert.Equal(t, "general", m.Category)
	require.Len(t, m.Outcomes, 2)
	assert.Equal(t, 0, m.Outcomes[0].SortOrder)
	assert.Equal(t, 1, m.Outcomes[1].SortOrder)
}

func TestCreateMarketEnqueuesCrosspost(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewService(db, nil, pub)
	creator := newTestAgent(t, db, "creator")

	m := newTestMarket(t, svc, creator)
	require.Len(t, pub.posts, 1)
	assert.Equal(t, m.Title, pub.posts[0])
}

func TestCloseMarket(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil, nil)
	creator := newTestAgent(t, db, "creator")
	stranger := newTestAgent(t, db, "stranger")
	m := newTestMarket(t, svc, creator)

	_, err := svc.CloseMarket(m.ID, stranger)
	assert.ErrorIs(t, err, ErrNotCreator)

	closed, err := svc.CloseMarket(m.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, models.MarketClosed, closed.Status)

	_, err = svc.CloseMarket(m.ID, creator)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestResolveFromOpenDirectly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil, nil)
	creator := newTestAgent(t, db, "creator")
	m := newTestMarket(t, svc, creator)

	// No close required first
	resolved, err := svc.ResolveMarket(m.ID, m.Outcomes[1].ID, creator)
	require.NoError(t, err)
	assert.Equal(t, models.MarketResolved, resolved.Status)
	require.NotNil(t, resolved.WinningOutcomeID)
	assert.Equal(t, m.Outcomes[1].ID, *resolved.WinningOutcomeID)
}

func TestResolveFromClosed(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil, nil)
	creator := newTestAgent(t, db, "creator")
	m := newTestMarket(t, svc, creator)

	_, err := svc.CloseMarket(m.ID, creator)
	require.NoError(t, err)

	resolved, err := svc.ResolveMarket(m.ID, m.Outcomes[0].ID, creator)
	require.NoError(t, err)
	assert.Equal(t, models.MarketResolved, resolved.Status)
}

func TestResolveGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil, nil)
	creator := newTestAgent(t, db, "creator")
	stranger := newTestAgent(t, db, "stranger")
	m := newTestMarket(t, svc, creator)
	other := newTestMarket(t, svc, creator)

	_, err := svc.ResolveMarket(m.ID, m.Outcomes[0].ID, stranger)
	assert.ErrorIs(t, err, ErrNotCreator)

	_, err = svc.ResolveMarket(m.ID, other.Outcomes[0].ID, creator)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = svc.ResolveMarket(m.ID, m.Outcomes[0].ID, creator)
	require.NoError(t, err)

	_, err = svc.ResolveMarket(m.ID, m.Outcomes[1].ID, creator)
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	// The winner must be untouched by the failed second resolve
	var got models.Market
	require.NoError(t, db.First(&got, "id = ?", m.ID).Error)
	require.NotNil(t, got.WinningOutcomeID)
	assert.Equal(t, m.Outcomes[0].ID, *got.WinningOutcomeID)
}

func TestCloseResolvedMarketFails(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil, nil)
	creator := newTestAgent(t, db, "creator")
	m := newTestMarket(t, svc, creator)

	_, err := svc.ResolveMarket(m.ID, m.Outcomes[0].ID, creator)
	require.NoError(t, err)

	_, err = svc.CloseMarket(m.ID, creator)
	assert.ErrorIs(t, err, ErrNotOpen)
}
