package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"nutrilog/models"
	"nutrilog/repository"
)

type memUsers struct {
	mu sync.Mutex
	m  map[string]models.User
}

func newMemUsers(users ...models.User) *memUsers {
	r := &memUsers{m: map[string]models.User{}}
	for _, u := range users {
		r.m[u.ID] = u
	}
	return r
}

func (r *memUsers) Upsert(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.m[u.ID]; ok {
		u.CreatedAt = old.CreatedAt
	}
	r.m[u.ID] = *u
	return nil
}

func (r *memUsers) Get(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memUsers) List(context.Context) ([]models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.User, 0, len(r.m))
	for _, u := range r.m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memFoods struct {
	mu    sync.Mutex
	seq   int
	rows  []models.FoodEntry
	err   error
	lists int // full-row List calls
}

func (r *memFoods) Create(_ context.Context, e *models.FoodEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if e.ID == "" {
		r.seq++
		e.ID = "e" + strconv.Itoa(r.seq)
	}
	r.rows = append(r.rows, *e)
	return nil
}

func (r *memFoods) List(_ context.Context, userID string, from, to time.Time) ([]models.FoodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.err != nil {
		return nil, r.err
	}
	var out []models.FoodEntry
	for _, e := range r.rows {
		if e.UserID != userID {
			continue
		}
		if !from.IsZero() && e.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !e.Timestamp.Before(to) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memFoods) Timestamps(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []time.Time
	for _, e := range r.rows {
		if e.UserID == userID && (since.IsZero() || !e.Timestamp.Before(since)) {
			out = append(out, e.Timestamp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].After(out[j]) })
	return out, nil
}

func (r *memFoods) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.rows {
		if e.ID == id && e.UserID == userID {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memFoods) add(userID string, ts time.Time, info string) {
	_ = r.Create(context.Background(), &models.FoodEntry{
		UserID: userID, FoodName: "food", Quantity: "1", NutritionInfo: info, Timestamp: ts,
	})
}

type memGoals struct {
	mu sync.Mutex
	m  map[string]models.DailyGoal
}

func newMemGoals() *memGoals { return &memGoals{m: map[string]models.DailyGoal{}} }

func (r *memGoals) Upsert(_ context.Context, g *models.DailyGoal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g.UpdatedAt = time.Now()
	r.m[g.UserID+"/"+g.Day] = *g
	return nil
}

func (r *memGoals) Get(_ context.Context, userID, day string) (*models.DailyGoal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.m[userID+"/"+day]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

type memBMI struct {
	mu   sync.Mutex
	rows []models.BMIRecord
}

func (r *memBMI) Append(_ context.Context, rec *models.BMIRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = strconv.Itoa(len(r.rows) + 1)
	r.rows = append(r.rows, *rec)
	return nil
}

func (r *memBMI) List(_ context.Context, userID string) ([]models.BMIRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.BMIRecord
	for _, rec := range r.rows {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type memDevices struct {
	mu   sync.Mutex
	rows []models.UserDevice
}

func (r *memDevices) Upsert(_ context.Context, d *models.UserDevice) (*models.UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].UserID == d.UserID && r.rows[i].TokenHash == d.TokenHash {
			r.rows[i].EndpointARN = d.EndpointARN
			r.rows[i].Platform = d.Platform
			out := r.rows[i]
			return &out, nil
		}
	}
	d.ID = strconv.Itoa(len(r.rows) + 1)
	d.Enabled = true
	r.rows = append(r.rows, *d)
	return d, nil
}

func (r *memDevices) ListEnabled(_ context.Context, userID string) ([]models.UserDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.UserDevice
	for _, d := range r.rows {
		if d.UserID == userID && d.Enabled {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *memDevices) SetEnabled(_ context.Context, userID string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].UserID == userID {
			r.rows[i].Enabled = enabled
		}
	}
	return nil
}

type memReminders struct {
	mu   sync.Mutex
	sent map[string]models.Reminder
}

func newMemReminders() *memReminders { return &memReminders{sent: map[string]models.Reminder{}} }

func (r *memReminders) MarkSent(_ context.Context, rem *models.Reminder) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := rem.UserID + "/" + rem.Day + "/" + rem.MealType
	if _, ok := r.sent[key]; ok {
		return false, nil
	}
	r.sent[key] = *rem
	return true, nil
}

// stubAI answers every prompt with text and records the prompts.
type stubAI struct {
	mu      sync.Mutex
	text    string
	err     error
	prompts []string
}

func (s *stubAI) GenerateText(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.text, s.err
}

type stubClassifier struct {
	p   Prediction
	err error
}

func (s stubClassifier) Classify(context.Context, []byte) (Prediction, error) { return s.p, s.err }

type stubUploader struct {
	url string
	err error
}

func (s stubUploader) UploadDataURI(context.Context, string, string) (string, error) {
	return s.url, s.err
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

const sampleInfo = "Calories: 200 kcal\nProtein: 10 g\nFat: 5 g\nCarbohydrates: 30 g\nFiber: 3 g"
