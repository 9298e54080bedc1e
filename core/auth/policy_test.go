package auth

import (
	"context"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

// fakeRelationshipRepo is an in-memory RelationshipRepository with error
// injection.
type fakeRelationshipRepo struct {
	parentStudents  map[string][]string
	studentClasses  map[string]string
	teacherSubjects map[string][]string
	subjectClasses  map[string][]string
	err             error
}

func (f *fakeRelationshipRepo) ParentStudentIDs(_ context.Context, parentID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.parentStudents[parentID], nil
}

func (f *fakeRelationshipRepo) StudentClassID(_ context.Context, studentID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.studentClasses[studentID], nil
}

func (f *fakeRelationshipRepo) TeacherHasSubject(_ context.Context, teacherID, subjectID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return contains(f.teacherSubjects[teacherID], subjectID), nil
}

func (f *fakeRelationshipRepo) SubjectInClass(_ context.Context, subjectID, classID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return contains(f.subjectClasses[subjectID], classID), nil
}

func contains(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}

func TestEvaluator_AuthorizeRole(t *testing.T) {
	ev := NewEvaluator(&fakeRelationshipRepo{})

	// every role against every non-empty subset of the enumeration
	for _, role := range AllRoles {
		for mask := 1; mask < 1<<len(AllRoles); mask++ {
			var allowed []Role
			member := false
			for i, r := range AllRoles {
				if mask&(1<<i) != 0 {
					allowed = append(allowed, r)
					if r == role {
						member = true
					}
				}
			}

			dec := ev.AuthorizeRole(Identity{Role: role}, allowed...)
			if dec.Permitted != member {
				t.Errorf("AuthorizeRole(%s, %v).Permitted = %v, want %v", role, allowed, dec.Permitted, member)
			}
			if !dec.Permitted && dec.Reason != "not permitted to perform this action" {
				t.Errorf("AuthorizeRole(%s, %v).Reason = %q", role, allowed, dec.Reason)
			}
			if dec.Permitted && dec.Reason != "" {
				t.Errorf("Permit carries a reason: %q", dec.Reason)
			}
		}
	}
}

func TestEvaluator_AuthorizeRole_EmptySet(t *testing.T) {
	ev := NewEvaluator(&fakeRelationshipRepo{})
	if dec := ev.AuthorizeRole(Identity{Role: RoleAdmin}); dec.Permitted {
		t.Error("AuthorizeRole() permitted against an empty role set")
	}
}

func TestEvaluator_LinkedStudentIDs(t *testing.T) {
	repo := &fakeRelationshipRepo{
		parentStudents: map[string][]string{"p1": {"s1", "s2"}},
	}
	ev := NewEvaluator(repo)
	ctx := context.Background()

	got, err := ev.LinkedStudentIDs(ctx, "p1")
	if err != nil {
		t.Fatalf("LinkedStudentIDs(): %v", err)
	}
	if !reflect.DeepEqual(got, []string{"s1", "s2"}) {
		t.Errorf("LinkedStudentIDs() = %v", got)
	}

	// a parent with zero links gets an empty slice, not nil and not an error
	got, err = ev.LinkedStudentIDs(ctx, "p2")
	if err != nil {
		t.Fatalf("LinkedStudentIDs(): %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("LinkedStudentIDs() = %#v, want empty slice", got)
	}
}

func TestEvaluator_LinkedClassIDs(t *testing.T) {
	repo := &fakeRelationshipRepo{
		parentStudents: map[string][]string{
			"p1": {"s1", "s2", "s3"},
			"p2": {"s4"},
		},
		studentClasses: map[string]string{
			"s1": "c1",
			"s2": "c1", // same class as s1
			"s3": "c2",
			// s4 has no class
		},
	}
	ev := NewEvaluator(repo)
	ctx := context.Background()

	tests := []struct {
		name     string
		parentID string
		want     []string
	}{
		{name: "deduplicated union", parentID: "p1", want: []string{"c1", "c2"}},
		{name: "classless students excluded", parentID: "p2", want: []string{}},
		{name: "no links", parentID: "p3", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.LinkedClassIDs(ctx, tt.parentID)
			if err != nil {
				t.Fatalf("LinkedClassIDs(): %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LinkedClassIDs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_TeacherMaySubjectClass(t *testing.T) {
	repo := &fakeRelationshipRepo{
		teacherSubjects: map[string][]string{"t1": {"math"}},
		subjectClasses:  map[string][]string{"math": {"c1"}},
	}
	ev := NewEvaluator(repo)
	ctx := context.Background()

	tests := []struct {
		name      string
		teacherID string
		subjectID string
		classID   []string
		want      bool
	}{
		{name: "assigned, no class given", teacherID: "t1", subjectID: "math", want: true},
		{name: "assigned, linked class", teacherID: "t1", subjectID: "math", classID: []string{"c1"}, want: true},
		{name: "assigned, unlinked class", teacherID: "t1", subjectID: "math", classID: []string{"c2"}, want: false},
		{name: "not assigned", teacherID: "t1", subjectID: "physics", want: false},
		{name: "not assigned, linked class", teacherID: "t2", subjectID: "math", classID: []string{"c1"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ev.TeacherMaySubjectClass(ctx, tt.teacherID, tt.subjectID, tt.classID...)
			if err != nil {
				t.Fatalf("TeacherMaySubjectClass(): %v", err)
			}
			if got != tt.want {
				t.Errorf("TeacherMaySubjectClass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluator_StoreFailureIsNotDeny(t *testing.T) {
	errStore := errors.New("connection refused")
	ev := NewEvaluator(&fakeRelationshipRepo{err: errStore})
	ctx := context.Background()

	if _, err := ev.LinkedStudentIDs(ctx, "p1"); err != errStore {
		t.Errorf("LinkedStudentIDs() error = %v, want %v", err, errStore)
	}
	if _, err := ev.LinkedClassIDs(ctx, "p1"); err != errStore {
		t.Errorf("LinkedClassIDs() error = %v, want %v", err, errStore)
	}
	if _, err := ev.StudentClassID(ctx, "s1"); err != errStore {
		t.Errorf("StudentClassID() error = %v, want %v", err, errStore)
	}
	if _, err := ev.TeacherMaySubjectClass(ctx, "t1", "math"); err != errStore {
		t.Errorf("TeacherMaySubjectClass() error = %v, want %v", err, errStore)
	}
}

func TestIssueVerifyAuthorize(t *testing.T) {
	svc := newTestTokenService()
	ev := NewEvaluator(&fakeRelationshipRepo{
		parentStudents: map[string][]string{"p1": {"s1", "s2"}},
		studentClasses: map[string]string{"s1": "c1", "s2": "c1"},
	})
	ctx := context.Background()

	token, err := svc.Issue("s1", "Hero", RoleStudent)
	if err != nil {
		t.Fatalf("Issue(): %v", err)
	}
	idn, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify(): %v", err)
	}

	if dec := ev.AuthorizeRole(idn, RoleStudent, RoleTeacher); !dec.Permitted {
		t.Error("student denied against {student, teacher}")
	}
	if dec := ev.AuthorizeRole(idn, RoleAdmin); dec.Permitted {
		t.Error("student permitted against {admin}")
	}

	// both linked students share one class
	classIDs, err := ev.LinkedClassIDs(ctx, "p1")
	if err != nil {
		t.Fatalf("LinkedClassIDs(): %v", err)
	}
	if !reflect.DeepEqual(classIDs, []string{"c1"}) {
		t.Errorf("LinkedClassIDs() = %v, want [c1]", classIDs)
	}
}
