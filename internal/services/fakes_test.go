package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"reading-journal/internal/models"
	"reading-journal/internal/utils"
)

type fakeUsers struct {
	byID map[primitive.ObjectID]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[primitive.ObjectID]*models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := map[primitive.ObjectID]models.User{}
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			out[id] = *u
		}
	}
	return out, nil
}

func (f *fakeUsers) ListIDs(_ context.Context) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for id := range f.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeUsers) UpdateFields(_ context.Context, id primitive.ObjectID, fields bson.M) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	if v, ok := fields["display_name"]; ok {
		u.DisplayName = v.(string)
	}
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id primitive.ObjectID, hashed string, resetRequired bool) error {
	u, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	u.Password = hashed
	u.ResetRequired = resetRequired
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id primitive.ObjectID) error {
	delete(f.byID, id)
	return nil
}

type fakeBooks struct {
	byID map[primitive.ObjectID]*models.Book
}

func newFakeBooks() *fakeBooks {
	return &fakeBooks{byID: map[primitive.ObjectID]*models.Book{}}
}

func (f *fakeBooks) Create(_ context.Context, b *models.Book) error {
	b.ID = primitive.NewObjectID()
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBooks) GetByID(_ context.Context, userID, id primitive.ObjectID) (*models.Book, error) {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID {
		return nil, models.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBooks) List(_ context.Context, userID primitive.ObjectID, status models.BookStatus) ([]models.Book, error) {
	out := []models.Book{}
	for _, b := range f.byID {
		if b.UserID == userID && (status == "" || b.Status == status) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBooks) Update(_ context.Context, b *models.Book) error {
	existing, ok := f.byID[b.ID]
	if !ok || existing.UserID != b.UserID {
		return models.ErrNotFound
	}
	cp := *b
	f.byID[b.ID] = &cp
	return nil
}

func (f *fakeBooks) SetCover(_ context.Context, userID, id primitive.ObjectID, url string) error {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID {
		return models.ErrNotFound
	}
	b.CoverURL = url
	return nil
}

func (f *fakeBooks) AdvanceProgress(_ context.Context, userID, id primitive.ObjectID, page int) error {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID {
		return models.ErrNotFound
	}
	if page > b.CurrentPage {
		b.CurrentPage = page
	}
	if b.Status == models.StatusWantToRead {
		now := time.Now().UTC()
		b.Status = models.StatusReading
		b.StartedAt = &now
	}
	return nil
}

func (f *fakeBooks) Delete(_ context.Context, userID, id primitive.ObjectID) error {
	b, ok := f.byID[id]
	if !ok || b.UserID != userID {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSessions struct {
	byID map[primitive.ObjectID]*models.ReadingSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: map[primitive.ObjectID]*models.ReadingSession{}}
}

func (f *fakeSessions) Create(_ context.Context, s *models.ReadingSession) error {
	s.ID = primitive.NewObjectID()
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSessions) CreateMany(ctx context.Context, sessions []models.ReadingSession) error {
	for i := range sessions {
		if err := f.Create(ctx, &sessions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSessions) List(_ context.Context, userID primitive.ObjectID, bookID *primitive.ObjectID) ([]models.ReadingSession, error) {
	out := []models.ReadingSession{}
	for _, s := range f.byID {
		if s.UserID == userID && (bookID == nil || s.BookID == *bookID) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessions) Delete(_ context.Context, userID, id primitive.ObjectID) (*models.ReadingSession, error) {
	s, ok := f.byID[id]
	if !ok || s.UserID != userID {
		return nil, models.ErrNotFound
	}
	delete(f.byID, id)
	return s, nil
}

func (f *fakeSessions) DeleteByBook(_ context.Context, userID, bookID primitive.ObjectID) (int64, error) {
	var n int64
	for id, s := range f.byID {
		if s.UserID == userID && s.BookID == bookID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeNotes struct {
	byID map[primitive.ObjectID]*models.Note
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{byID: map[primitive.ObjectID]*models.Note{}}
}

func (f *fakeNotes) Create(_ context.Context, n *models.Note) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now().UTC()
	cp := *n
	f.byID[n.ID] = &cp
	return nil
}

func (f *fakeNotes) CreateMany(ctx context.Context, notes []models.Note) error {
	for i := range notes {
		if err := f.Create(ctx, &notes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNotes) GetByID(_ context.Context, id primitive.ObjectID) (*models.Note, error) {
	n, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotes) List(_ context.Context, userID primitive.ObjectID, filter models.NoteFilter) ([]models.Note, error) {
	out := []models.Note{}
	for _, n := range f.byID {
		if n.UserID != userID {
			continue
		}
		if filter.BookID != nil && n.BookID != *filter.BookID {
			continue
		}
		if filter.Kind != "" && n.Kind != filter.Kind {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (f *fakeNotes) ListPublic(_ context.Context, limit int64) ([]models.Note, error) {
	out := []models.Note{}
	for _, n := range f.byID {
		if n.Public {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotes) ListIDsByBook(_ context.Context, userID, bookID primitive.ObjectID) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for id, n := range f.byID {
		if n.UserID == userID && n.BookID == bookID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeNotes) UpdateFields(_ context.Context, userID, id primitive.ObjectID, fields bson.M) (*models.Note, error) {
	n, ok := f.byID[id]
	if !ok || n.UserID != userID {
		return nil, models.ErrNotFound
	}
	if v, ok := fields["content"]; ok {
		n.Content = v.(string)
	}
	if v, ok := fields["page"]; ok {
		n.Page = v.(int)
	}
	if v, ok := fields["public"]; ok {
		n.Public = v.(bool)
	}
	cp := *n
	return &cp, nil
}

func (f *fakeNotes) IncrementCounters(_ context.Context, id primitive.ObjectID, likes, comments int) error {
	n, ok := f.byID[id]
	if !ok {
		return models.ErrNotFound
	}
	n.LikesCount += likes
	n.CommentsCount += comments
	return nil
}

func (f *fakeNotes) Delete(_ context.Context, userID, id primitive.ObjectID) error {
	n, ok := f.byID[id]
	if !ok || n.UserID != userID {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeNotes) DeleteByBook(_ context.Context, userID, bookID primitive.ObjectID) (int64, error) {
	var n int64
	for id, note := range f.byID {
		if note.UserID == userID && note.BookID == bookID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

type fakeSocial struct {
	likes    []models.Like
	comments map[primitive.ObjectID]*models.Comment
}

func newFakeSocial() *fakeSocial {
	return &fakeSocial{comments: map[primitive.ObjectID]*models.Comment{}}
}

func (f *fakeSocial) InsertLike(_ context.Context, like *models.Like) error {
	for _, l := range f.likes {
		if l.NoteID == like.NoteID && l.UserID == like.UserID {
			return models.ErrDuplicate
		}
	}
	like.ID = primitive.NewObjectID()
	f.likes = append(f.likes, *like)
	return nil
}

func (f *fakeSocial) DeleteLike(_ context.Context, noteID, userID primitive.ObjectID) (*models.Like, error) {
	for i, l := range f.likes {
		if l.NoteID == noteID && l.UserID == userID {
			f.likes = append(f.likes[:i], f.likes[i+1:]...)
			return &l, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeSocial) CountLikesReceived(_ context.Context, authorID primitive.ObjectID) (int, error) {
	n := 0
	for _, l := range f.likes {
		if l.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSocial) InsertComment(_ context.Context, c *models.Comment) error {
	c.ID = primitive.NewObjectID()
	cp := *c
	f.comments[c.ID] = &cp
	return nil
}

func (f *fakeSocial) GetComment(_ context.Context, id primitive.ObjectID) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeSocial) DeleteComment(_ context.Context, id, userID primitive.ObjectID) (*models.Comment, error) {
	c, ok := f.comments[id]
	if !ok || c.UserID != userID {
		return nil, models.ErrNotFound
	}
	delete(f.comments, id)
	return c, nil
}

func (f *fakeSocial) ListComments(_ context.Context, noteID primitive.ObjectID) ([]models.Comment, error) {
	out := []models.Comment{}
	for _, c := range f.comments {
		if c.NoteID == noteID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeSocial) CountCommentsWritten(_ context.Context, userID primitive.ObjectID) (int, error) {
	n := 0
	for _, c := range f.comments {
		if c.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSocial) CommentersOf(_ context.Context, noteIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	out := map[primitive.ObjectID]int{}
	for _, c := range f.comments {
		for _, id := range noteIDs {
			if c.NoteID == id {
				out[c.UserID]++
			}
		}
	}
	return out, nil
}

func (f *fakeSocial) DeleteByNotes(_ context.Context, noteIDs []primitive.ObjectID) error {
	in := func(id primitive.ObjectID) bool {
		for _, n := range noteIDs {
			if n == id {
				return true
			}
		}
		return false
	}

	kept := f.likes[:0]
	for _, l := range f.likes {
		if !in(l.NoteID) {
			kept = append(kept, l)
		}
	}
	f.likes = kept

	for id, c := range f.comments {
		if in(c.NoteID) {
			delete(f.comments, id)
		}
	}
	return nil
}

type fakeStats struct {
	byID map[primitive.ObjectID]*models.UserStatistics
}

func newFakeStats() *fakeStats {
	return &fakeStats{byID: map[primitive.ObjectID]*models.UserStatistics{}}
}

func (f *fakeStats) doc(userID primitive.ObjectID) *models.UserStatistics {
	st, ok := f.byID[userID]
	if !ok {
		st = &models.UserStatistics{UserID: userID, Level: 1}
		f.byID[userID] = st
	}
	return st
}

func (f *fakeStats) Ensure(_ context.Context, userID primitive.ObjectID) error {
	f.doc(userID)
	return nil
}

func (f *fakeStats) Get(_ context.Context, userID primitive.ObjectID) (*models.UserStatistics, error) {
	st, ok := f.byID[userID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStats) Increment(_ context.Context, userID primitive.ObjectID, d models.CounterDelta, lastSessionAt *time.Time) (*models.UserStatistics, error) {
	st := f.doc(userID)
	st.TotalReadingTime += d.ReadingTime
	st.TotalLikesReceived += d.LikesReceived
	st.TotalCommentsWritten += d.CommentsWritten
	st.SessionsCount += d.Sessions
	st.TotalPagesRead += d.PagesRead
	if d.Weekday != "" && d.Sessions != 0 {
		if st.SessionsByWeekday == nil {
			st.SessionsByWeekday = map[string]int{}
		}
		st.SessionsByWeekday[d.Weekday] += d.Sessions
	}
	if d.Month != "" && d.ReadingTime != 0 {
		if st.ReadingTimeByMonth == nil {
			st.ReadingTimeByMonth = map[string]int{}
		}
		st.ReadingTimeByMonth[d.Month] += d.ReadingTime
	}
	if lastSessionAt != nil && (st.LastSessionAt == nil || lastSessionAt.After(*st.LastSessionAt)) {
		t := *lastSessionAt
		st.LastSessionAt = &t
	}
	cp := *st
	return &cp, nil
}

func (f *fakeStats) SetLevel(_ context.Context, userID primitive.ObjectID, level, exp int) (int, error) {
	st, ok := f.byID[userID]
	if !ok {
		return 0, models.ErrNotFound
	}
	prev := st.Level
	st.Level = level
	st.Experience = exp
	return prev, nil
}

func (f *fakeStats) ReplaceAggregate(_ context.Context, userID primitive.ObjectID, agg models.Aggregate) error {
	st := f.doc(userID)
	st.TotalReadingTime = agg.TotalReadingTime
	st.TotalLikesReceived = agg.TotalLikesReceived
	st.TotalCommentsWritten = agg.TotalCommentsWritten
	st.SessionsCount = agg.SessionsCount
	st.TotalPagesRead = agg.TotalPagesRead
	st.BooksFinished = agg.BooksFinished
	st.Authors = agg.Authors
	st.Genres = agg.Genres
	st.SessionsByWeekday = agg.SessionsByWeekday
	st.ReadingTimeByMonth = agg.ReadingTimeByMonth
	st.LastSessionAt = agg.LastSessionAt
	return nil
}

func (f *fakeStats) Top(_ context.Context, limit int64) ([]models.UserStatistics, error) {
	out := make([]models.UserStatistics, 0, len(f.byID))
	for _, st := range f.byID {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Experience != out[j].Experience {
			return out[i].Experience > out[j].Experience
		}
		return out[i].UserID.Hex() < out[j].UserID.Hex()
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCache struct {
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = b
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := f.data[key]
	if !ok {
		return utils.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (f *fakeCache) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

type fakePublisher struct {
	events []models.LevelUpEvent
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload interface{}) error {
	if channel != EventsChannel {
		return nil
	}
	if ev, ok := payload.(models.LevelUpEvent); ok {
		f.events = append(f.events, ev)
	}
	return nil
}

type fakeMailer struct {
	sent map[string]string
}

func (f *fakeMailer) SendTemporaryPassword(email, password string) error {
	if f.sent == nil {
		f.sent = map[string]string{}
	}
	f.sent[email] = password
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeStorage) PutObject(_ context.Context, bucket, name string, r io.Reader, _ int64, _ minio.PutObjectOptions) (minio.UploadInfo, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return minio.UploadInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+name] = buf.Bytes()
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: int64(buf.Len())}, nil
}

// testEnv wires every service against the in-memory fakes
type testEnv struct {
	users    *fakeUsers
	books    *fakeBooks
	sessions *fakeSessions
	notes    *fakeNotes
	social   *fakeSocial
	stats    *fakeStats
	cache    *fakeCache
	events   *fakePublisher
	mailer   *fakeMailer
	storage  *fakeStorage
	metrics  *utils.Metrics

	auth       *AuthService
	statistics *StatisticsService
	bookSvc    *BookService
	sessionSvc *SessionService
	noteSvc    *NoteService
	socialSvc  *SocialService
	importSvc  *ImportService
}

func newTestLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := newTestLogger()

	env := &testEnv{
		users:    newFakeUsers(),
		books:    newFakeBooks(),
		sessions: newFakeSessions(),
		notes:    newFakeNotes(),
		social:   newFakeSocial(),
		stats:    newFakeStats(),
		cache:    newFakeCache(),
		events:   &fakePublisher{},
		mailer:   &fakeMailer{},
		storage:  &fakeStorage{},
		metrics:  utils.NewMetrics(prometheus.NewRegistry()),
	}

	env.auth = NewAuthService(env.users, env.stats, utils.NewJWTUtil("test-secret", time.Hour), env.mailer, env.cache, log)
	env.statistics = NewStatisticsService(env.stats, env.users, env.books, env.sessions, env.social, env.cache, env.events, env.metrics, log)
	env.bookSvc = NewBookService(env.books, env.sessions, env.notes, env.social, env.statistics, env.storage, "book-covers", "http://cdn.local/", log)
	env.sessionSvc = NewSessionService(env.sessions, env.books, env.statistics, env.metrics, log)
	env.noteSvc = NewNoteService(env.notes, env.books, env.social, env.statistics)
	env.socialSvc = NewSocialService(env.notes, env.social, env.statistics)
	env.importSvc = NewImportService(env.users, env.books, env.sessions, env.notes, env.statistics, log)

	return env
}

func (e *testEnv) newUser(t *testing.T, name string) primitive.ObjectID {
	t.Helper()
	u := &models.User{Email: name + "@example.com", DisplayName: name, Role: models.RoleReader}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (e *testEnv) newBook(t *testing.T, userID primitive.ObjectID, in models.BookInput) *models.Book {
	t.Helper()
	if in.Title == "" {
		in.Title = "Dune"
	}
	if in.Author == "" {
		in.Author = "Frank Herbert"
	}
	b, err := e.bookSvc.Create(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	return b
}

func (e *testEnv) newNote(t *testing.T, userID, bookID primitive.ObjectID, public bool) *models.Note {
	t.Helper()
	n, err := e.noteSvc.Create(context.Background(), userID, models.NoteInput{
		BookID:  bookID.Hex(),
		Kind:    models.KindQuote,
		Content: "The spice must flow",
		Public:  public,
	})
	if err != nil {
		t.Fatalf("create note: %v", err)
	}
	return n
}
