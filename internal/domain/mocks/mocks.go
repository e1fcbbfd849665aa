package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/user/agro-alert/internal/domain"
)

// MockRuleRepository is a mock implementation of domain.RuleRepository.
type MockRuleRepository struct {
	mu          sync.Mutex
	Rules       map[string]*domain.AlertRule
	GetErr      error
	ListErr     error
	MarkErr     error
	MarkFiredOK bool // forced result when ForceMarkResult is set
	ForceMark   bool
	MarkCalls   int
}

func NewMockRuleRepository(rules ...*domain.AlertRule) *MockRuleRepository {
	m := &MockRuleRepository{Rules: make(map[string]*domain.AlertRule)}
	for _, r := range rules {
		m.Rules[r.ID] = r
	}
	return m
}

func (m *MockRuleRepository) GetRule(ctx context.Context, id string) (*domain.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	r, ok := m.Rules[id]
	if !ok {
		return nil, domain.ErrRuleNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRuleRepository) ListActiveRules(ctx context.Context) ([]domain.AlertRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []domain.AlertRule
	for _, r := range m.Rules {
		if r.IsActive {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockRuleRepository) MarkFired(ctx context.Context, id string, prev *time.Time, firedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls++
	if m.MarkErr != nil {
		return false, m.MarkErr
	}
	if m.ForceMark {
		return m.MarkFiredOK, nil
	}
	r, ok := m.Rules[id]
	if !ok {
		return false, nil
	}
	if !timesEqual(r.LastFiredAt, prev) {
		return false, nil
	}
	t := firedAt
	r.LastFiredAt = &t
	return true, nil
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// MockJobQueue is a recording mock implementation of domain.JobQueue.
type MockJobQueue struct {
	mu         sync.Mutex
	Enqueued   []EnqueuedJob
	EnqueueErr error
	Handlers   map[domain.JobKind]domain.JobHandler
}

// EnqueuedJob records one Enqueue call with its decoded payload bytes.
type EnqueuedJob struct {
	Kind    domain.JobKind
	Payload json.RawMessage
}

func (m *MockJobQueue) Enqueue(ctx context.Context, kind domain.JobKind, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnqueueErr != nil {
		return "", m.EnqueueErr
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	m.Enqueued = append(m.Enqueued, EnqueuedJob{Kind: kind, Payload: raw})
	return fmt.Sprintf("job-%d", len(m.Enqueued)), nil
}

func (m *MockJobQueue) RegisterHandler(kind domain.JobKind, handler domain.JobHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Handlers == nil {
		m.Handlers = make(map[domain.JobKind]domain.JobHandler)
	}
	m.Handlers[kind] = handler
}

// ByKind returns the recorded jobs of one kind.
func (m *MockJobQueue) ByKind(kind domain.JobKind) []EnqueuedJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EnqueuedJob
	for _, j := range m.Enqueued {
		if j.Kind == kind {
			out = append(out, j)
		}
	}
	return out
}

// MockWeatherFetcher is a mock implementation of domain.WeatherFetcher.
type MockWeatherFetcher struct {
	Reading  domain.Reading
	FetchErr error
	Calls    int
}

func (m *MockWeatherFetcher) FetchCurrentReading(ctx context.Context, locationID string) (domain.Reading, error) {
	m.Calls++
	if m.FetchErr != nil {
		return domain.Reading{}, m.FetchErr
	}
	r := m.Reading
	r.LocationID = locationID
	return r, nil
}

// MockReadingCache is an in-memory mock of domain.ReadingCache.
type MockReadingCache struct {
	mu       sync.Mutex
	Readings map[string]domain.Reading
	GetErr   error
	PutErr   error
	PutTTLs  []time.Duration
}

func (m *MockReadingCache) Get(ctx context.Context, locationID string) (*domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	r, ok := m.Readings[locationID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MockReadingCache) Put(ctx context.Context, reading domain.Reading, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.Readings == nil {
		m.Readings = make(map[string]domain.Reading)
	}
	m.Readings[reading.LocationID] = reading
	m.PutTTLs = append(m.PutTTLs, ttl)
	return nil
}

// MockEmailSender records SendEmail calls.
type MockEmailSender struct {
	mu      sync.Mutex
	Sent    []SentEmail
	SendErr error
}

type SentEmail struct {
	Address  string
	Subject  string
	HTMLBody string
}

func (m *MockEmailSender) SendEmail(ctx context.Context, address, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentEmail{Address: address, Subject: subject, HTMLBody: htmlBody})
	return nil
}

// MockSMSSender records SendSMS calls.
type MockSMSSender struct {
	mu      sync.Mutex
	Sent    []SentSMS
	SendErr error
}

type SentSMS struct {
	Number string
	Text   string
}

func (m *MockSMSSender) SendSMS(ctx context.Context, number, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentSMS{Number: number, Text: text})
	return nil
}

// MockPushSender records SendPush calls.
type MockPushSender struct {
	mu      sync.Mutex
	Sent    []SentPush
	SendErr error
}

type SentPush struct {
	UserID string
	Title  string
	Body   string
}

func (m *MockPushSender) SendPush(ctx context.Context, userID, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = append(m.Sent, SentPush{UserID: userID, Title: title, Body: body})
	return nil
}

// MockFarmRepository is a mock implementation of domain.FarmRepository.
type MockFarmRepository struct {
	Farms   []domain.Farm
	ListErr error
}

func (m *MockFarmRepository) ListFarms(ctx context.Context) ([]domain.Farm, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Farms, nil
}

// MockAdvisor is a mock implementation of domain.Advisor.
type MockAdvisor struct {
	Advice       string
	RecommendErr error
	Calls        int
}

func (m *MockAdvisor) Recommend(ctx context.Context, farm domain.Farm, reading domain.Reading) (string, error) {
	m.Calls++
	if m.RecommendErr != nil {
		return "", m.RecommendErr
	}
	return m.Advice, nil
}
