package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"ideahub/mentorship-api/internal/analysis"
	"ideahub/mentorship-api/internal/domain"
	"ideahub/mentorship-api/internal/lock"
	"ideahub/mentorship-api/internal/repository"
	"ideahub/mentorship-api/internal/storage"
)

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]domain.User{}}
}

func (r *fakeUserRepo) add(name string, role domain.Role) primitive.ObjectID {
	id := primitive.NewObjectID()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id] = domain.User{ID: id, Name: name, Email: strings.ToLower(name) + "@example.com", Role: role}
	return id
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- projects ---

type fakeProjectRepo struct {
	mu        sync.Mutex
	projects  map[primitive.ObjectID]*domain.Project
	order     []primitive.ObjectID
	createErr error
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: map[primitive.ObjectID]*domain.Project{}}
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	c.Comments = append([]domain.Comment{}, p.Comments...)
	c.RawFiles = append([]domain.FileRecord{}, p.RawFiles...)
	c.MentorRemarks = domain.Document{}
	for k, v := range p.MentorRemarks {
		c.MentorRemarks[k] = v
	}
	return &c
}

func (r *fakeProjectRepo) Create(ctx context.Context, p *domain.Project) (primitive.ObjectID, error) {
	if r.createErr != nil {
		return primitive.NilObjectID, r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	r.projects[p.ID] = cloneProject(p)
	r.order = append(r.order, p.ID)
	return p.ID, nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneProject(p), nil
}

func (r *fakeProjectRepo) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Project{}
	for _, id := range r.order {
		for _, want := range ids {
			if id == want {
				out = append(out, *cloneProject(r.projects[id]))
			}
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) SetAnalysisIfEmpty(ctx context.Context, id primitive.ObjectID, doc domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !p.Analysis.IsEmpty() {
		return repository.ErrPreconditionFailed
	}
	p.Analysis = doc
	return nil
}

func (r *fakeProjectRepo) SetFeedback(ctx context.Context, id primitive.ObjectID, doc domain.Document) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.Feedback = doc
	return cloneProject(p), nil
}

func (r *fakeProjectRepo) AddComment(ctx context.Context, id primitive.ObjectID, c domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Comments = append(p.Comments, c)
	return nil
}

func (r *fakeProjectRepo) UpdateComment(ctx context.Context, id, commentID primitive.ObjectID, text string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			now := time.Now().UTC()
			p.Comments[i].Text = text
			p.Comments[i].UpdatedAt = &now
			c := p.Comments[i]
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProjectRepo) DeleteComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeProjectRepo) MergeMentorRemarks(ctx context.Context, id primitive.ObjectID, remarks domain.Document) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if p.MentorRemarks == nil {
		p.MentorRemarks = domain.Document{}
	}
	for k, v := range remarks {
		p.MentorRemarks[k] = v
	}
	return cloneProject(p), nil
}

func (r *fakeProjectRepo) FindByStorageID(ctx context.Context, storageID string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		for _, f := range r.projects[id].RawFiles {
			if f.StorageID == storageID {
				return cloneProject(r.projects[id]), nil
			}
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeProjectRepo) PullFileByStorageID(ctx context.Context, storageID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.projects {
		kept := p.RawFiles[:0]
		for _, f := range p.RawFiles {
			if f.StorageID != storageID {
				kept = append(kept, f)
			}
		}
		if len(kept) != len(p.RawFiles) {
			n++
		}
		p.RawFiles = kept
	}
	return n, nil
}

// --- links ---

type fakeLinkRepo struct {
	mu           sync.Mutex
	links        map[primitive.ObjectID]*domain.StudentLink // by student
	uniqueMentor bool
	addCalls     int
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: map[primitive.ObjectID]*domain.StudentLink{}}
}

func (r *fakeLinkRepo) upsert(studentID primitive.ObjectID) *domain.StudentLink {
	l, ok := r.links[studentID]
	if !ok {
		l = &domain.StudentLink{ID: primitive.NewObjectID(), StudentID: studentID, Projects: []primitive.ObjectID{}}
		r.links[studentID] = l
	}
	return l
}

func cloneLink(l *domain.StudentLink) *domain.StudentLink {
	c := *l
	c.Projects = append([]primitive.ObjectID{}, l.Projects...)
	return &c
}

func (r *fakeLinkRepo) AddProject(ctx context.Context, studentID, projectID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addCalls++
	l := r.upsert(studentID)
	if !l.HasProject(projectID) {
		l.Projects = append(l.Projects, projectID)
	}
	return nil
}

func (r *fakeLinkRepo) AssignMentor(ctx context.Context, studentID, mentorID primitive.ObjectID) (*domain.StudentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.uniqueMentor {
		for sid, l := range r.links {
			if sid != studentID && l.MentorID != nil && *l.MentorID == mentorID {
				return nil, repository.ErrDuplicate
			}
		}
	}
	l := r.upsert(studentID)
	m := mentorID
	l.MentorID = &m
	return cloneLink(l), nil
}

func (r *fakeLinkRepo) GetByStudentID(ctx context.Context, studentID primitive.ObjectID) (*domain.StudentLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.links[studentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneLink(l), nil
}

func (r *fakeLinkRepo) filter(keep func(*domain.StudentLink) bool) []domain.StudentLink {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.StudentLink{}
	for _, l := range r.links {
		if keep(l) {
			out = append(out, *cloneLink(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out
}

func (r *fakeLinkRepo) ListByMentorID(ctx context.Context, mentorID primitive.ObjectID) ([]domain.StudentLink, error) {
	return r.filter(func(l *domain.StudentLink) bool { return l.MentorID != nil && *l.MentorID == mentorID }), nil
}

func (r *fakeLinkRepo) ListAssigned(ctx context.Context) ([]domain.StudentLink, error) {
	return r.filter(func(l *domain.StudentLink) bool { return l.MentorID != nil }), nil
}

func (r *fakeLinkRepo) ListWithProjects(ctx context.Context) ([]domain.StudentLink, error) {
	return r.filter(func(l *domain.StudentLink) bool { return len(l.Projects) > 0 }), nil
}

func (r *fakeLinkRepo) HasMentorForProject(ctx context.Context, mentorID, projectID primitive.ObjectID) (bool, error) {
	links := r.filter(func(l *domain.StudentLink) bool {
		return l.MentorID != nil && *l.MentorID == mentorID && l.HasProject(projectID)
	})
	return len(links) > 0, nil
}

func (r *fakeLinkRepo) FindByProjectID(ctx context.Context, projectID primitive.ObjectID) (*domain.StudentLink, error) {
	links := r.filter(func(l *domain.StudentLink) bool { return l.HasProject(projectID) })
	if len(links) == 0 {
		return nil, repository.ErrNotFound
	}
	return &links[0], nil
}

// --- file store ---

type fakeFileStorage struct {
	mu       sync.Mutex
	objects  map[string]bool
	failName string
}

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{objects: map[string]bool{}}
}

func (f *fakeFileStorage) Upload(ctx context.Context, file storage.File, opts storage.UploadOptions) (storage.Object, error) {
	if file.Name == f.failName {
		return storage.Object{}, &storage.UploadError{Name: file.Name, Err: errors.New("rejected")}
	}
	key := storage.ObjectKey(opts.Folder, opts.Name)
	f.mu.Lock()
	f.objects[key] = true
	f.mu.Unlock()
	return storage.Object{URL: "https://files.test/" + key, StorageID: key}, nil
}

func (f *fakeFileStorage) Delete(ctx context.Context, storageID string) (storage.DeleteOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.objects[storageID] {
		return storage.AlreadyAbsent, nil
	}
	delete(f.objects, storageID)
	return storage.Deleted, nil
}

func (f *fakeFileStorage) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// --- external services ---

type fakeDocuments struct {
	err  error
	urls []string
}

func (f *fakeDocuments) ProcessDocument(ctx context.Context, fileURL string) (*analysis.DocumentResult, error) {
	f.urls = append(f.urls, fileURL)
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.DocumentResult{
		Transcript: []domain.Document{{"section": "problem", "text": "first"}, {"section": "team", "text": "second"}},
		Structured: domain.Document{"title": "deck"},
	}, nil
}

type fakeAnalysisClient struct {
	mu            sync.Mutex
	analysis      domain.Document
	feedback      domain.Document
	err           error
	analyzeCalls  int
	feedbackCalls int
	lastRecord    domain.Document
	lastFull      []domain.Document
	block         chan struct{} // when set, Analyze waits on it
}

func (f *fakeAnalysisClient) Analyze(ctx context.Context, record domain.Document) (domain.Document, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzeCalls++
	f.lastRecord = record
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func (f *fakeAnalysisClient) Feedback(ctx context.Context, transcript []domain.Document) (domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feedbackCalls++
	f.lastFull = transcript
	if f.err != nil {
		return nil, f.err
	}
	return f.feedback, nil
}

// memoryLocker is an in-process lock.Locker.
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: map[string]bool{}}
}

func (l *memoryLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, lock.ErrNotAcquired
	}
	l.held[key] = true
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}, nil
}
