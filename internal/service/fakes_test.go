package service

import (
	"context"
	"io"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
	"github.com/mustafamaahir/Meeting-Minutes/internal/repository"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/llm"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/qdrant"
	"github.com/mustafamaahir/Meeting-Minutes/pkg/tasks"
)

// In-memory fakes shared by the service tests.

type fakeExtractor struct {
	text         string
	err          error
	lastFileName string
}

func (e *fakeExtractor) ExtractText(_ context.Context, _ io.Reader, fileName string) (string, error) {
	e.lastFileName = fileName
	if e.err != nil {
		return "", e.err
	}
	return e.text, nil
}

type fakeVectorStore struct {
	storedMeetingID uint
	storedDate      time.Time
	storedFileName  string
	storedChunks    []string
	storeErr        error

	searchHits []qdrant.ScoredChunk
	searchErr  error
	lastQuery  string
	lastTopK   int
	lastFilter string

	deletedMeetings []uint
	deleteErr       error

	recentDate  time.Time
	recentFound bool
	recentErr   error
}

func (s *fakeVectorStore) EnsureCollection(context.Context) error { return nil }

func (s *fakeVectorStore) StoreChunks(_ context.Context, meetingDBID uint, meetingDate time.Time, fileName string, chunks []string) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	s.storedMeetingID = meetingDBID
	s.storedDate = meetingDate
	s.storedFileName = fileName
	s.storedChunks = chunks
	return nil
}

func (s *fakeVectorStore) Search(_ context.Context, query string, topK int, meetingDate string) ([]qdrant.ScoredChunk, error) {
	s.lastQuery = query
	s.lastTopK = topK
	s.lastFilter = meetingDate
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.searchHits, nil
}

func (s *fakeVectorStore) DeleteByMeeting(_ context.Context, meetingDBID uint) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deletedMeetings = append(s.deletedMeetings, meetingDBID)
	return nil
}

func (s *fakeVectorStore) MostRecentDate(context.Context) (time.Time, bool, error) {
	return s.recentDate, s.recentFound, s.recentErr
}

type fakeMeetingRepo struct {
	meetings map[uint]*model.MeetingMinutes
	nextID   uint
	creates  int
	updates  int
	deletes  []uint
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uint]*model.MeetingMinutes), nextID: 1}
}

func (r *fakeMeetingRepo) seed(m *model.MeetingMinutes) {
	r.meetings[m.ID] = m
	if m.ID >= r.nextID {
		r.nextID = m.ID + 1
	}
}

func (r *fakeMeetingRepo) Create(m *model.MeetingMinutes) error {
	m.ID = r.nextID
	r.nextID++
	r.creates++
	stored := *m
	r.meetings[m.ID] = &stored
	return nil
}

func (r *fakeMeetingRepo) Update(m *model.MeetingMinutes) error {
	r.updates++
	stored := *m
	r.meetings[m.ID] = &stored
	return nil
}

func (r *fakeMeetingRepo) FindByID(id uint) (*model.MeetingMinutes, error) {
	m, ok := r.meetings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *m
	return &found, nil
}

func (r *fakeMeetingRepo) FindByDate(date time.Time) (*model.MeetingMinutes, error) {
	for _, m := range r.meetings {
		if m.MeetingDate.Equal(date) {
			found := *m
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMeetingRepo) FindAllOrdered() ([]model.MeetingMinutes, error) {
	all := make([]model.MeetingMinutes, 0, len(r.meetings))
	for _, m := range r.meetings {
		all = append(all, *m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].MeetingDate.After(all[j].MeetingDate) })
	return all, nil
}

func (r *fakeMeetingRepo) FindLatest() (*model.MeetingMinutes, error) {
	var latest *model.MeetingMinutes
	for _, m := range r.meetings {
		if latest == nil || m.MeetingDate.After(latest.MeetingDate) {
			latest = m
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	found := *latest
	return &found, nil
}

func (r *fakeMeetingRepo) Delete(id uint) error {
	delete(r.meetings, id)
	r.deletes = append(r.deletes, id)
	return nil
}

type fakeArchive struct {
	saved   map[string][]byte
	saveErr error
	removed []string
}

func (a *fakeArchive) Save(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) error {
	if a.saveErr != nil {
		return a.saveErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if a.saved == nil {
		a.saved = make(map[string][]byte)
	}
	a.saved[objectName] = data
	return nil
}

func (a *fakeArchive) Remove(_ context.Context, objectName string) error {
	a.removed = append(a.removed, objectName)
	return nil
}

func (a *fakeArchive) PresignedURL(_ context.Context, objectName string) (string, error) {
	return "https://archive.local/" + objectName, nil
}

type fakeProducer struct {
	tasks []tasks.VectorCleanupTask
	err   error
}

func (p *fakeProducer) ProduceCleanupTask(task tasks.VectorCleanupTask) error {
	if p.err != nil {
		return p.err
	}
	p.tasks = append(p.tasks, task)
	return nil
}

type fakeSummaryCache struct {
	cached      *repository.CachedSummary
	getErr      error
	sets        []repository.CachedSummary
	lastTTL     time.Duration
	invalidated int
}

func (c *fakeSummaryCache) Get(context.Context) (*repository.CachedSummary, error) {
	return c.cached, c.getErr
}

func (c *fakeSummaryCache) Set(_ context.Context, summary repository.CachedSummary, ttl time.Duration) error {
	c.sets = append(c.sets, summary)
	c.lastTTL = ttl
	return nil
}

func (c *fakeSummaryCache) Invalidate(context.Context) error {
	c.invalidated++
	c.cached = nil
	return nil
}

type fakeSummarizer struct {
	summary  string
	lastText string
	lastDate time.Time
}

func (s *fakeSummarizer) Generate(_ context.Context, meetingText string, meetingDate time.Time) string {
	s.lastText = meetingText
	s.lastDate = meetingDate
	return s.summary
}

type llmCall struct {
	model    string
	messages []llm.Message
	gen      *llm.GenerationParams
}

type fakeLLM struct {
	reply string
	err   error
	calls []llmCall
}

func (c *fakeLLM) ChatCompletion(_ context.Context, model string, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	c.calls = append(c.calls, llmCall{model: model, messages: messages, gen: gen})
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

type fakeQueryLogRepo struct {
	entries   []model.QueryLog
	createErr error
	recent    []model.QueryLog
	lastLimit int
}

func (r *fakeQueryLogRepo) Create(entry *model.QueryLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeQueryLogRepo) FindRecent(limit int) ([]model.QueryLog, error) {
	r.lastLimit = limit
	return r.recent, nil
}

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	user.ID = r.nextID
	r.nextID++
	stored := *user
	r.users[user.Username] = &stored
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	found := *u
	return &found, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == userID {
			found := *u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
