package auth

import (
	"context"
)

// deniedReason is the only reason ever attached to a Deny: it must not leak
// which roles or relationships would have been accepted.
const deniedReason = "not permitted to perform this action"

// Decision is the outcome of an authorization check.
type Decision struct {
	Permitted bool
	Reason    string
}

func Permit() Decision { return Decision{Permitted: true} }
func Deny() Decision   { return Decision{Reason: deniedReason} }

// RelationshipRepository resolves the stored associations used for row-level
// scoping. Absence is reported as empty/false, never as an error; errors mean
// the store itself failed and callers must fail closed while reporting the
// failure distinctly from a Deny.
type RelationshipRepository interface {
	// ParentStudentIDs returns the students linked to a parent.
	ParentStudentIDs(ctx context.Context, parentID string) ([]string, error)
	// StudentClassID returns the class a student is enrolled in, or "" when none.
	StudentClassID(ctx context.Context, studentID string) (string, error)
	// TeacherHasSubject reports whether the teacher is assigned to the subject.
	TeacherHasSubject(ctx context.Context, teacherID, subjectID string) (bool, error)
	// SubjectInClass reports whether the subject is linked to the class.
	SubjectInClass(ctx context.Context, subjectID, classID string) (bool, error)
}

// Evaluator decides whether a verified Identity may perform an action.
//
// AuthorizeRole is the coarse gate: can this role ever do X. The relationship
// predicates are the fine-grained layer: can this specific principal touch
// this specific row. A Permit from AuthorizeRole is necessary but not
// sufficient for row-scoped actions; handlers apply the relevant predicate
// before touching a record. Every predicate re-reads the store so that
// decisions always reflect current relationship facts.
type Evaluator struct {
	repo RelationshipRepository
}

func NewEvaluator(repo RelationshipRepository) *Evaluator {
	return &Evaluator{repo: repo}
}

// AuthorizeRole permits iff the identity's role is in the allowed set.
func (ev *Evaluator) AuthorizeRole(idn Identity, allowed ...Role) Decision {
	for _, r := range allowed {
		if idn.Role == r {
			return Permit()
		}
	}
	return Deny()
}

// LinkedStudentIDs returns the students linked to a parent. A parent with no
// links gets an empty slice: visible to nothing, not to everything.
func (ev *Evaluator) LinkedStudentIDs(ctx context.Context, parentID string) ([]string, error) {
	ids, err := ev.repo.ParentStudentIDs(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// StudentClassID returns the class a student is currently enrolled in, or ""
// when the student has no class.
func (ev *Evaluator) StudentClassID(ctx context.Context, studentID string) (string, error) {
	return ev.repo.StudentClassID(ctx, studentID)
}

// LinkedClassIDs returns the deduplicated classes of all students linked to a
// parent, excluding students with no class.
func (ev *Evaluator) LinkedClassIDs(ctx context.Context, parentID string) ([]string, error) {
	studentIDs, err := ev.LinkedStudentIDs(ctx, parentID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(studentIDs))
	classIDs := make([]string, 0, len(studentIDs))
	for _, sid := range studentIDs {
		classID, err := ev.repo.StudentClassID(ctx, sid)
		if err != nil {
			return nil, err
		}
		if classID == "" || seen[classID] {
			continue
		}
		seen[classID] = true
		classIDs = append(classIDs, classID)
	}
	return classIDs, nil
}

// TeacherMaySubjectClass reports whether the teacher is assigned to the
// subject and, when a class is given, whether the subject is linked to that
// class.
func (ev *Evaluator) TeacherMaySubjectClass(ctx context.Context, teacherID, subjectID string, classID ...string) (bool, error) {
	ok, err := ev.repo.TeacherHasSubject(ctx, teacherID, subjectID)
	if err != nil || !ok {
		return false, err
	}
	if len(classID) == 0 || classID[0] == "" {
		return true, nil
	}
	return ev.repo.SubjectInClass(ctx, subjectID, classID[0])
}
