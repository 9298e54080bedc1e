package inmemdb

import (
	"context"

	"github.com/elimu-app/elimu/core/auth"
)

type RelationshipRepository struct {
	db *relationTables
}

var _ auth.RelationshipRepository = (*RelationshipRepository)(nil) // interface compliance check

func NewRelationshipRepository(db *DB) *RelationshipRepository {
	return &RelationshipRepository{db: db.relations}
}

// AddParentStudent links a student to a parent.
func (repo *RelationshipRepository) AddParentStudent(parentID, studentID string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.parentStudents[parentID] = append(repo.db.parentStudents[parentID], studentID)
}

// SetStudentClass enrolls a student in a class, replacing any prior enrollment.
func (repo *RelationshipRepository) SetStudentClass(studentID, classID string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.enrollments[studentID] = classID
}

// AddTeacherSubject assigns a subject to a teacher.
func (repo *RelationshipRepository) AddTeacherSubject(teacherID, subjectID string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if repo.db.teacherSubject[teacherID] == nil {
		repo.db.teacherSubject[teacherID] = make(map[string]bool)
	}
	repo.db.teacherSubject[teacherID][subjectID] = true
}

// AddSubjectClass links a subject to a class.
func (repo *RelationshipRepository) AddSubjectClass(subjectID, classID string) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	if repo.db.subjectClass[subjectID] == nil {
		repo.db.subjectClass[subjectID] = make(map[string]bool)
	}
	repo.db.subjectClass[subjectID][classID] = true
}

func (repo *RelationshipRepository) ParentStudentIDs(_ context.Context, parentID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := repo.db.parentStudents[parentID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

func (repo *RelationshipRepository) StudentClassID(_ context.Context, studentID string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.enrollments[studentID], nil
}

func (repo *RelationshipRepository) TeacherHasSubject(_ context.Context, teacherID, subjectID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.teacherSubject[teacherID][subjectID], nil
}

func (repo *RelationshipRepository) SubjectInClass(_ context.Context, subjectID, classID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.subjectClass[subjectID][classID], nil
}
