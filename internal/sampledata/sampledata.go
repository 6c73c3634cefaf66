// Package sampledata builds the demo course: three project groups of four
// students with two weeks of contributions, milestones and messages.
package sampledata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/teampulse/internal/adapters/repository"
	"github.com/okian/teampulse/internal/domain/model"
)

const day = 24 * time.Hour

// anchor is the calendar day the fixture was written against. Fixed dates are
// shifted so that anchor lands on the day Build is called for.
var anchor = time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC)

// Course is every record of the demo course.
type Course struct {
	Groups         []model.GroupDescriptor
	Students       []model.Student
	Contributions  []model.ContributionRecord
	Milestones     []model.MilestoneRecord
	Communications []model.CommunicationRecord
}

type work struct {
	days, hours int
	task        string
	action      string
	duration    float64
}

type milestone struct {
	name   string
	due    string
	status model.MilestoneStatus
}

type message struct {
	date     string
	from, to string
	text     string
	tone     model.Tone
}

type group struct {
	id, name, project string
	status            model.GroupStatus
	members           []string
	work              map[string][]work
	milestones        []milestone
	messages          []message
}

var groups = []group{
	{
		id: "Group_A", name: "Web Development Team", project: "E-commerce Platform",
		status:  model.StatusAtRisk,
		members: []string{"Alice", "Bob", "Charlie", "Diana"},
		work: map[string][]work{
			"Alice": {
				{0, 14, "Frontend", "Committed code", 2},
				{1, 10, "Frontend", "Reviewed PR", 1},
				{3, 15, "Frontend", "Fixed bugs", 3},
				{5, 9, "Frontend", "Updated component", 2},
				{7, 11, "Frontend", "Completed feature", 4},
				{10, 16, "Frontend", "Code review", 1.5},
				{12, 13, "Frontend", "Merged PR", 1},
			},
			"Bob": {
				{1, 14, "Backend", "Designed API", 3},
				{4, 10, "Backend", "Implemented endpoint", 4},
				{8, 15, "Backend", "Fixed issues", 2},
				{11, 9, "Backend", "Deployed", 1},
			},
			"Charlie": {
				{2, 14, "Database", "Created schema", 2},
			},
		},
		milestones: []milestone{
			{"Requirements Document", "2024-11-30", model.MilestoneCompleted},
			{"Design & Architecture", "2024-12-05", model.MilestoneCompleted},
			{"Core Features Implementation", "2024-12-15", model.MilestoneInProgress},
			{"Testing & QA", "2024-12-18", model.MilestoneNotStarted},
		},
		messages: []message{
			{"2024-12-10", "Alice", "Diana", "Diana, can you help with database setup?", model.ToneDirect},
			{"2024-12-11", "Bob", "Group", "Need database schema ASAP", model.ToneUrgent},
			{"2024-12-12", "Charlie", "Alice", "Schema done but backend might need tweaks", model.ToneNeutral},
		},
	},
	{
		id: "Group_B", name: "Data Analytics Team", project: "Customer Behavior Analysis",
		status:  model.StatusHealthy,
		members: []string{"Eve", "Frank", "Grace", "Henry"},
		work: map[string][]work{
			"Eve": {
				{0, 10, "Data Collection", "Scraped data", 3},
				{3, 14, "Analysis", "Cleaned dataset", 2},
				{7, 11, "Visualization", "Created charts", 2.5},
			},
			"Frank": {
				{1, 15, "Data Collection", "Gathered sources", 2},
				{4, 10, "Analysis", "Statistical test", 3},
				{9, 13, "Report Writing", "Drafted section", 2},
			},
			"Grace": {
				{2, 11, "Analysis", "Data profiling", 2.5},
				{5, 14, "Visualization", "Dashboard design", 3},
				{10, 10, "Report Writing", "Finalized report", 1.5},
			},
			"Henry": {
				{3, 13, "Analysis", "Correlation analysis", 2},
				{6, 15, "Presentation", "Created slides", 3},
				{11, 9, "Report Writing", "Peer review", 1},
			},
		},
		milestones: []milestone{
			{"Data Collection Plan", "2024-12-02", model.MilestoneCompleted},
			{"Raw Data Gathered", "2024-12-08", model.MilestoneCompleted},
			{"Analysis & Visualization", "2024-12-15", model.MilestoneInProgress},
			{"Final Report & Presentation", "2024-12-20", model.MilestoneNotStarted},
		},
		messages: []message{
			{"2024-12-10", "Eve", "Group", "Data collected! Everyone please validate", model.ToneCollaborative},
			{"2024-12-11", "Grace", "Eve", "Great work! I'll start analysis", model.ToneSupportive},
		},
	},
	{
		id: "Group_C", name: "Mobile App Team", project: "Task Manager App",
		status:  model.StatusThriving,
		members: []string{"Iris", "Jack", "Kate", "Liam"},
		work: map[string][]work{
			"Iris": {
				{0, 10, "UI Design", "Created mockups", 4},
				{4, 14, "UI Design", "Refined design", 2.5},
				{8, 11, "Frontend", "Implemented UI", 3},
			},
			"Jack": {
				{1, 15, "Backend Logic", "Core logic", 4},
				{5, 10, "API Integration", "Connected API", 3},
				{10, 13, "Testing", "Unit tests", 2},
			},
			"Kate": {
				{2, 14, "Backend Logic", "Database layer", 3},
				{6, 11, "API Integration", "Error handling", 2},
				{9, 15, "Testing", "Integration tests", 2.5},
			},
			"Liam": {
				{3, 13, "Testing", "QA testing", 2},
				{7, 10, "Documentation", "API docs", 3},
				{11, 14, "Documentation", "User guide", 2},
			},
		},
		milestones: []milestone{
			{"Design Phase", "2024-12-05", model.MilestoneCompleted},
			{"Development Sprint 1", "2024-12-12", model.MilestoneCompleted},
			{"Development Sprint 2", "2024-12-17", model.MilestoneInProgress},
			{"Deployment & Documentation", "2024-12-20", model.MilestoneNotStarted},
		},
		messages: []message{
			{"2024-12-10", "Iris", "Group", "Mockups ready for feedback", model.ToneCollaborative},
			{"2024-12-11", "Jack", "Iris", "Looks great! Starting backend development", model.ToneSupportive},
		},
	},
}

const deadline = "2024-12-20"

// Build returns the demo course as seen on now's calendar day. Contributions
// span the fourteen days before now.
func Build(now time.Time) Course {
	now = now.UTC()
	today := now.Truncate(day)
	shift := today.Sub(anchor)
	base := now.Add(-14 * day)

	var c Course
	for _, g := range groups {
		c.Groups = append(c.Groups, model.GroupDescriptor{
			ID:       g.id,
			Name:     g.name,
			Project:  g.project,
			Members:  append([]string(nil), g.members...),
			Deadline: shifted(deadline, shift),
			Status:   g.status,
		})

		for _, m := range g.members {
			c.Students = append(c.Students, model.Student{
				ID:    m,
				Name:  m,
				Email: strings.ToLower(m) + "@example.edu",
			})
			for i, w := range g.work[m] {
				c.Contributions = append(c.Contributions, model.ContributionRecord{
					ID:        fmt.Sprintf("%s-%s-%d", g.id, strings.ToLower(m), i+1),
					StudentID: m,
					GroupID:   g.id,
					Task:      w.task,
					Action:    w.action,
					Hours:     w.duration,
					Timestamp: base.Add(time.Duration(w.days)*day + time.Duration(w.hours)*time.Hour),
				})
			}
		}

		for i, ms := range g.milestones {
			c.Milestones = append(c.Milestones, model.MilestoneRecord{
				ID:      fmt.Sprintf("%s-ms-%d", g.id, i+1),
				GroupID: g.id,
				Name:    ms.name,
				DueDate: shifted(ms.due, shift),
				Status:  ms.status,
			})
		}

		for i, msg := range g.messages {
			c.Communications = append(c.Communications, model.CommunicationRecord{
				ID:        fmt.Sprintf("%s-msg-%d", g.id, i+1),
				GroupID:   g.id,
				Sender:    msg.from,
				Recipient: msg.to,
				Message:   msg.text,
				Tone:      msg.tone,
				Timestamp: shifted(msg.date, shift),
			})
		}
	}
	return c
}

func shifted(date string, shift time.Duration) time.Time {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		panic(fmt.Sprintf("sampledata: bad date %q: %v", date, err))
	}
	return t.Add(shift)
}

// Load writes the course into store. Records already present are skipped, so
// loading twice is harmless.
func Load(ctx context.Context, store repository.Store, c Course) error {
	for _, g := range c.Groups {
		if err := store.PutGroup(ctx, g); err != nil {
			return fmt.Errorf("seeding group %s: %w", g.ID, err)
		}
	}
	for _, s := range c.Students {
		if err := store.PutStudent(ctx, s); err != nil {
			return fmt.Errorf("seeding student %s: %w", s.ID, err)
		}
	}
	for _, rec := range c.Contributions {
		if err := store.AddContribution(ctx, rec); err != nil && !errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("seeding contribution %s: %w", rec.ID, err)
		}
	}

	existing := map[string]bool{}
	for _, g := range c.Groups {
		ms, err := store.Milestones(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("listing milestones of %s: %w", g.ID, err)
		}
		for _, m := range ms {
			existing[m.ID] = true
		}
		msgs, err := store.Communications(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("listing communications of %s: %w", g.ID, err)
		}
		for _, m := range msgs {
			existing[m.ID] = true
		}
	}
	for _, m := range c.Milestones {
		if existing[m.ID] {
			continue
		}
		if err := store.AddMilestone(ctx, m); err != nil {
			return fmt.Errorf("seeding milestone %s: %w", m.ID, err)
		}
	}
	for _, m := range c.Communications {
		if existing[m.ID] {
			continue
		}
		if err := store.AddCommunication(ctx, m); err != nil {
			return fmt.Errorf("seeding communication %s: %w", m.ID, err)
		}
	}
	return nil
}
