package tasks

import (
	"context"
	"errors"
	"sync"

	"github.com/lysyi3m/mail-comb/app/database"
	"github.com/lysyi3m/mail-comb/app/feed"
)

// MockSource returns fixed data or an error
type MockSource struct {
	data []byte
	err  error
}

func (m *MockSource) Run(ctx context.Context) ([]byte, error) {
	return m.data, m.err
}

type MockParser struct {
	entries []feed.Entry
	err     error
	input   []byte
}

func (m *MockParser) Run(data []byte) ([]feed.Entry, error) {
	m.input = data
	return m.entries, m.err
}

type MockProcessor struct {
	processed []feed.Entry
	stats     feed.RunStats
	err       error
}

func (m *MockProcessor) Run(ctx context.Context, entries []feed.Entry) (feed.RunStats, error) {
	m.processed = append(m.processed, entries...)
	return m.stats, m.err
}

type MockPublisher struct {
	runs  int
	count int
	err   error
}

func (m *MockPublisher) Run() (int, error) {
	m.runs++
	return m.count, m.err
}

type MockBlocklist struct {
	refreshes int
	err       error
}

func (m *MockBlocklist) RefreshIfStale(ctx context.Context) error {
	m.refreshes++
	return m.err
}

type MockEntryResetter struct {
	articles map[string]int64
	err      error
	reset    []string
}

func (m *MockEntryResetter) ResetEntry(entryID string) (int64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	deleted, ok := m.articles[entryID]
	if !ok {
		return 0, false, nil
	}
	m.reset = append(m.reset, entryID)
	delete(m.articles, entryID)
	return deleted, true, nil
}

type MockBackfillStore struct {
	articles []database.Article
	limit    int
	updates  map[int64]string
}

func (m *MockBackfillStore) GetRecentNonSpamArticles(limit int) ([]database.Article, error) {
	m.limit = limit
	return m.articles, nil
}

func (m *MockBackfillStore) UpdateArticleContent(articleID int64, content string) error {
	if m.updates == nil {
		m.updates = make(map[int64]string)
	}
	m.updates[articleID] = content
	return nil
}

type MockExtractor struct {
	pages map[string]string
}

func (m *MockExtractor) Run(ctx context.Context, pageURL string) (*feed.ExtractedArticle, error) {
	html, ok := m.pages[pageURL]
	if !ok {
		return nil, errors.New("page not found")
	}
	return &feed.ExtractedArticle{URL: pageURL, HTML: html}, nil
}

// MockTask records executions and can block until released
type MockTask struct {
	Task
	mu       sync.Mutex
	runs     int
	executed chan struct{}
	release  chan struct{}
	err      error
}

func newMockTask() *MockTask {
	return &MockTask{
		Task:     NewTask(TaskTypePublishFeed),
		executed: make(chan struct{}, 10),
	}
}

func (m *MockTask) Execute(ctx context.Context) error {
	m.mu.Lock()
	m.runs++
	m.mu.Unlock()

	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
		}
	}

	m.executed <- struct{}{}
	return m.err
}

func (m *MockTask) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}
