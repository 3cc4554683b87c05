package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"akut-backend/models"
	"akut-backend/provider"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeTreeStore serves trees keyed by "slug/lang" and records every read
type fakeTreeStore struct {
	mu    sync.Mutex
	trees map[string]*models.DecisionTree
	err   error
	reads []string
}

func newFakeTreeStore(t *testing.T, docs map[string]string) *fakeTreeStore {
	t.Helper()
	store := &fakeTreeStore{trees: make(map[string]*models.DecisionTree)}
	for key, doc := range docs {
		tree, err := models.ParseDecisionTreeJSON([]byte(doc))
		require.NoError(t, err)
		store.trees[key] = tree
	}
	return store
}

func (f *fakeTreeStore) Get(_ context.Context, slug, language string) (*models.DecisionTree, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, slug+"/"+language)
	if f.err != nil {
		return nil, false, f.err
	}
	tree, ok := f.trees[slug+"/"+language]
	return tree, ok, nil
}

func (f *fakeTreeStore) List(context.Context) ([]*models.DecisionTree, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.DecisionTree, 0, len(f.trees))
	for _, tree := range f.trees {
		out = append(out, tree)
	}
	return out, nil
}

func (f *fakeTreeStore) Reads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reads...)
}

// fakeCompleter replays canned replies. With block set, calls wait for ctx
// once the canned fragments are used up.
type fakeCompleter struct {
	mu        sync.Mutex
	reply     string
	err       error
	fragments []string
	failAfter int // fail stream Recv at this index; -1 never
	streamErr error
	openErr   error
	block     bool
	calls     int
	messages  [][]models.Message
	params    []provider.Params
	streams   []*fakeStream
}

func newFakeCompleter() *fakeCompleter {
	return &fakeCompleter{failAfter: -1}
}

func (f *fakeCompleter) Name() string { return "fake" }

func (f *fakeCompleter) record(messages []models.Message, params provider.Params) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.messages = append(f.messages, messages)
	f.params = append(f.params, params)
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []models.Message, params provider.Params) (string, error) {
	f.record(messages, params)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func (f *fakeCompleter) CompleteStream(ctx context.Context, messages []models.Message, params provider.Params) (provider.Stream, error) {
	f.record(messages, params)
	if f.openErr != nil {
		return nil, f.openErr
	}
	s := &fakeStream{ctx: ctx, fragments: f.fragments, failAfter: f.failAfter, err: f.streamErr, block: f.block}
	f.mu.Lock()
	f.streams = append(f.streams, s)
	f.mu.Unlock()
	return s, nil
}

type fakeStream struct {
	mu        sync.Mutex
	ctx       context.Context
	fragments []string
	next      int
	failAfter int
	err       error
	block     bool
	closed    bool
}

func (s *fakeStream) Recv() (string, error) {
	s.mu.Lock()
	i := s.next
	s.next++
	s.mu.Unlock()

	if s.failAfter >= 0 && i == s.failAfter {
		return "", s.err
	}
	if i < len(s.fragments) {
		return s.fragments[i], nil
	}
	if s.block {
		<-s.ctx.Done()
		return "", s.ctx.Err()
	}
	return "", io.EOF
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// fakeCatalog is an in-memory hazard catalog
type fakeCatalog map[string]*models.HazardMeta

func (c fakeCatalog) Get(slug string) (*models.HazardMeta, bool) {
	m, ok := c[slug]
	return m, ok
}
