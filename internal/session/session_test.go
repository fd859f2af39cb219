package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/crunched/internal/engine"
)

func sampleSession(phase Phase) *Session {
	question := "Which sheet?"
	s := New("s-1", "price a 5-year bond")
	s.Phase = phase
	s.Classification = &Classification{TaskType: TaskBondPricing, NeedsExcel: true, Reasoning: "bond maths"}
	s.WorkbookInfo = map[string]any{"sheets": []any{map[string]any{"name": "Bonds", "usedRange": "A1:D10"}}}
	s.DataStrategy = &DataStrategy{Strategy: StrategyAskUser, RangesToRead: []string{}, QuestionForUser: &question}
	s.ExcelContext = []any{[]any{[]any{"Coupon", 0.05}}}
	s.History = []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "price it"},
		{Role: engine.RoleAssistant, ToolCalls: []engine.ToolCall{{ID: "t1", Name: "write_range", Args: map[string]any{"range": "B2"}}}},
		{Role: engine.RoleUser, ToolResults: []engine.ToolResult{{CallID: "t1", Content: "ok"}}},
	}
	return s
}

func TestSessionPhaseRoundTrip(t *testing.T) {
	phases := []Phase{
		Classify{},
		GetWorkbook{},
		ReadData{Ranges: []string{"Bonds!A1:D10"}},
		WaitingForUser{Question: "Which sheet?"},
		Expert{Started: true},
	}
	for _, phase := range phases {
		t.Run(string(phase.Name()), func(t *testing.T) {
			data, err := json.Marshal(sampleSession(phase))
			require.NoError(t, err)

			var got Session
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, phase, got.Phase)
			assert.Equal(t, sampleSession(phase).History, got.History)
			assert.Equal(t, "Which sheet?", *got.DataStrategy.QuestionForUser)
		})
	}
}

func TestSessionRecordIsFlat(t *testing.T) {
	data, err := json.Marshal(sampleSession(Expert{Started: true}))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "expert", raw["phase"])
	assert.Equal(t, true, raw["expert_started"])
	assert.Contains(t, raw, "conversation_history")
}

func TestSessionRejectsUnknownPhase(t *testing.T) {
	var s Session
	err := json.Unmarshal([]byte(`{"id":"x","phase":"finished"}`), &s)
	assert.ErrorContains(t, err, "unknown session phase")
}

func TestExpertStarted(t *testing.T) {
	assert.False(t, New("a", "m").ExpertStarted())
	assert.False(t, (&Session{Phase: Expert{}}).ExpertStarted())
	assert.True(t, (&Session{Phase: Expert{Started: true}}).ExpertStarted())
}

func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	s := sampleSession(ReadData{Ranges: []string{"A1:B2"}})
	require.NoError(t, store.Put(ctx, s))

	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, ReadData{Ranges: []string{"A1:B2"}}, got.Phase)
	assert.Equal(t, s.OriginalMessage, got.OriginalMessage)

	got.Phase = Expert{Started: true}
	require.NoError(t, store.Put(ctx, got))
	again, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, Expert{Started: true}, again.Phase)

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	defer store.Close()
	storeContract(t, store)
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(20 * time.Millisecond)
	require.NoError(t, store.Put(context.Background(), New("short", "m")))
	time.Sleep(40 * time.Millisecond)
	_, err := store.Get(context.Background(), "short")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "sessions.db"), time.Hour)
	require.NoError(t, err)
	defer store.Close()
	storeContract(t, store)
}

func TestSQLiteStoreExpires(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(ctx, filepath.Join(t.TempDir(), "sessions.db"), time.Minute)
	require.NoError(t, err)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	require.NoError(t, store.Put(ctx, New("old", "m")))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = store.Get(ctx, "old")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(rdb, time.Minute)
	defer store.Close()

	storeContract(t, store)

	require.NoError(t, store.Put(context.Background(), New("ttl", "m")))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"ttl"))
	mr.FastForward(2 * time.Minute)
	_, err := store.Get(context.Background(), "ttl")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNewRedisStoreFromURL(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), "redis://"+mr.Addr(), time.Minute)
	require.NoError(t, err)
	defer store.Close()
	storeContract(t, store)
}

func TestManagerCreatesAndKeepsUnknownID(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Hour))
	ctx := context.Background()

	err := m.WithSession(ctx, "client-id", "hello", func(tx *Tx) error {
		assert.True(t, tx.Created)
		assert.Equal(t, "client-id", tx.Session.ID)
		assert.Equal(t, Classify{}, tx.Session.Phase)
		tx.Session.Phase = GetWorkbook{}
		return tx.Checkpoint(ctx)
	})
	require.NoError(t, err)

	err = m.WithSession(ctx, "client-id", "ignored", func(tx *Tx) error {
		assert.False(t, tx.Created)
		assert.Equal(t, "hello", tx.Session.OriginalMessage)
		assert.Equal(t, GetWorkbook{}, tx.Session.Phase)
		return tx.Delete(ctx)
	})
	require.NoError(t, err)

	var generated string
	require.NoError(t, m.WithSession(ctx, "", "new", func(tx *Tx) error {
		generated = tx.Session.ID
		return nil
	}))
	assert.NotEmpty(t, generated)
	assert.Zero(t, m.Len(), "idle lock entries are dropped")
}

func TestManagerSerializesPerID(t *testing.T) {
	m := NewManager(NewMemoryStore(time.Hour))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := m.WithSession(ctx, "shared", "m", func(tx *Tx) error {
				tx.Session.History = append(tx.Session.History, engine.ChatMessage{Role: engine.RoleUser, Content: "x"})
				return tx.Checkpoint(ctx)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	s, err := m.Store().Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, s.History, 20, "no update may be lost")
	assert.Zero(t, m.Len())
}
