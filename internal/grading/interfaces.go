package grading

import "escaperoom/internal/rooms"

type Grader interface {
	Grade(room rooms.Room, sub Submission) Verdict
}
