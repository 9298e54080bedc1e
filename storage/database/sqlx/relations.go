package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/elimu-app/elimu/core/auth"
)

// relationshipRepository reads the parent/student, enrollment, teacher/subject
// and subject/class link tables. Reads are always fresh; nothing is cached so
// revoked links take effect on the next check.
type relationshipRepository struct {
	db *sqlx.DB
}

var _ auth.RelationshipRepository = (*relationshipRepository)(nil) // interface compliance check

func NewRelationshipRepository(db *sql.DB) *relationshipRepository {
	return &relationshipRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo relationshipRepository) ParentStudentIDs(ctx context.Context, parentID string) ([]string, error) {
	var ids []string
	err := repo.db.SelectContext(ctx, &ids,
		`SELECT student_id FROM parent_student WHERE parent_id = $1`, parentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying parent students")
	}
	return ids, nil
}

func (repo relationshipRepository) StudentClassID(ctx context.Context, studentID string) (string, error) {
	var classID string
	err := repo.db.GetContext(ctx, &classID,
		`SELECT class_id FROM enrollment WHERE student_id = $1`, studentID)
	if err == sql.ErrNoRows {
		return "", nil // not enrolled
	}
	if err != nil {
		return "", errors.Wrap(err, "querying student class")
	}
	return classID, nil
}

func (repo relationshipRepository) TeacherHasSubject(ctx context.Context, teacherID, subjectID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM teacher_subject WHERE teacher_id = $1 AND subject_id = $2)`,
		teacherID, subjectID)
	if err != nil {
		return false, errors.Wrap(err, "querying teacher subject")
	}
	return exists, nil
}

func (repo relationshipRepository) SubjectInClass(ctx context.Context, subjectID, classID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM subject_class WHERE subject_id = $1 AND class_id = $2)`,
		subjectID, classID)
	if err != nil {
		return false, errors.Wrap(err, "querying subject class")
	}
	return exists, nil
}
