// Package inmemdb provides map-backed repositories for tests and local
// development where a live database is not available.
package inmemdb

import (
	"sync"

	"github.com/elimu-app/elimu/core/user"
)

type DB struct {
	user      *userTable
	relations *relationTables
}

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User
}

type relationTables struct {
	mutex          sync.RWMutex
	parentStudents map[string][]string        // parentID -> studentIDs
	enrollments    map[string]string          // studentID -> classID
	teacherSubject map[string]map[string]bool // teacherID -> subjectIDs
	subjectClass   map[string]map[string]bool // subjectID -> classIDs
}

// Reset drops all stored rows; repositories created from this DB stay valid.
func (db *DB) Reset() {
	db.user.mutex.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.mutex.Unlock()

	db.relations.mutex.Lock()
	db.relations.parentStudents = make(map[string][]string)
	db.relations.enrollments = make(map[string]string)
	db.relations.teacherSubject = make(map[string]map[string]bool)
	db.relations.subjectClass = make(map[string]map[string]bool)
	db.relations.mutex.Unlock()
}

func NewDB() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		relations: &relationTables{
			parentStudents: make(map[string][]string),
			enrollments:    make(map[string]string),
			teacherSubject: make(map[string]map[string]bool),
			subjectClass:   make(map[string]map[string]bool),
		},
	}
}
