package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
)

const jobsBucket = "jobs"

// Store persists jobs in a BoltDB file so job status survives restarts.
type Store struct {
	db *bbolt.DB
}

// NewStore opens (or creates) the job database.
func NewStore(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errs.New(errs.CodeIoError, "jobs", fmt.Sprintf("failed to create directory %s", dir), err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, errs.New(errs.CodeIoError, "jobs", fmt.Sprintf("failed to open job db %s (is another instance using it?)", dbPath), err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(jobsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errs.New(errs.CodeIoError, "jobs", "failed to create jobs bucket", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new job.
func (s *Store) Create(job Job) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))

		if bucket.Get([]byte(job.ID)) != nil {
			return errs.New(errs.CodeAlreadyExists, "jobs", fmt.Sprintf("job %s already exists", job.ID), nil)
		}

		data, err := json.Marshal(job)
		if err != nil {
			return errs.New(errs.CodeInternalError, "jobs", "failed to marshal job", err)
		}
		if err := bucket.Put([]byte(job.ID), data); err != nil {
			return errs.New(errs.CodeIoError, "jobs", "failed to store job", err)
		}
		return nil
	})
}

// Get retrieves a job by ID.
func (s *Store) Get(id string) (Job, error) {
	var job Job

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return errs.New(errs.CodeNotFound, "jobs", fmt.Sprintf("job %s not found", id), nil)
		}
		return json.Unmarshal(data, &job)
	})
	if err != nil {
		return Job{}, err
	}
	return job, nil
}

// Update modifies an existing job, refreshing its UpdatedAt stamp.
func (s *Store) Update(job Job) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))

		if bucket.Get([]byte(job.ID)) == nil {
			return errs.New(errs.CodeNotFound, "jobs", fmt.Sprintf("job %s not found", job.ID), nil)
		}

		job.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(job)
		if err != nil {
			return errs.New(errs.CodeInternalError, "jobs", "failed to marshal job", err)
		}
		if err := bucket.Put([]byte(job.ID), data); err != nil {
			return errs.New(errs.CodeIoError, "jobs", "failed to update job", err)
		}
		return nil
	})
}

// Delete removes a job.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))

		if bucket.Get([]byte(id)) == nil {
			return errs.New(errs.CodeNotFound, "jobs", fmt.Sprintf("job %s not found", id), nil)
		}
		if err := bucket.Delete([]byte(id)); err != nil {
			return errs.New(errs.CodeIoError, "jobs", "failed to delete job", err)
		}
		return nil
	})
}

// List returns all jobs.
func (s *Store) List() ([]Job, error) {
	var result []Job

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				return nil // skip unreadable entries
			}
			result = append(result, job)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cleanup removes terminal jobs older than ttl together with their result
// files, and returns how many were removed.
func (s *Store) Cleanup(ttl time.Duration) (int, error) {
	now := time.Now().UTC()
	var removed int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(jobsBucket))

		var expired []Job
		err := bucket.ForEach(func(k, v []byte) error {
			var job Job
			if err := json.Unmarshal(v, &job); err != nil {
				return nil
			}
			if job.Done() && job.ExpiredAt(now, ttl) {
				expired = append(expired, job)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, job := range expired {
			if err := bucket.Delete([]byte(job.ID)); err != nil {
				continue
			}
			if job.ResultPath != "" {
				_ = os.Remove(job.ResultPath)
			}
			removed++
		}
		return nil
	})

	return removed, err
}
