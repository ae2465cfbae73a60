package dailytasks

import (
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"
)

// ErrZeroID is returned by marshalling or unmarshalling JSON when the task id is zero. Ids obtained from
// NewTaskID are never zero.
var ErrZeroID = errors.New("zero task id")

// TaskID identifies a task. It is a millisecond timestamp, which is what task ids have always been in the
// documents stored in gists, bumped when necessary so that ids handed out by one process are strictly increasing.
type TaskID int64

var lastID struct {
	sync.Mutex
	id TaskID
}

// NewTaskID returns a new id, derived from the current time and greater than any id previously returned.
func NewTaskID() TaskID {
	lastID.Lock()
	defer lastID.Unlock()
	id := TaskID(time.Now().UnixNano() / int64(time.Millisecond))
	if id <= lastID.id {
		id = lastID.id + 1
	}
	lastID.id = id
	return id
}

// ObserveTaskID makes sure future calls to NewTaskID return ids greater than id. It is called for every task
// loaded from the local store or pulled from the gist, as those may have been created on a device whose clock
// is ahead of ours.
func ObserveTaskID(id TaskID) {
	lastID.Lock()
	if id > lastID.id {
		lastID.id = id
	}
	lastID.Unlock()
}

// Created returns the time the task was created, approximately.
func (id TaskID) Created() time.Time {
	return time.UnixMilli(int64(id))
}

func (id TaskID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseTaskID parses the decimal representation of a task id, as printed by String.
func ParseTaskID(s string) (TaskID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrZeroID
	}
	return TaskID(n), nil
}

// MarshalJSON implements json.Marshaler.
func (id TaskID) MarshalJSON() ([]byte, error) {
	if id == 0 {
		return nil, ErrZeroID
	}
	return json.Marshal(int64(id))
}

// UnmarshalJSON implements json.Unmarshaler. Both numbers and strings holding numbers are accepted, since
// documents edited by hand in the gist web interface sometimes end up with quoted ids.
func (id *TaskID) UnmarshalJSON(b []byte) error {
	var n int64
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseTaskID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if n == 0 {
		return ErrZeroID
	}
	*id = TaskID(n)
	return nil
}
