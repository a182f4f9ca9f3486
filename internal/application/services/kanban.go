package services

import "github.com/sharada257/Feedback-Management/internal/domain/entities"

// KanbanColumn is one status lane of the Kanban surface
type KanbanColumn struct {
	Status entities.FeedbackStatus
	Items  []entities.Feedback
}

// GroupByStatus splits items into Open, In Progress and Completed lanes,
// keeping the collection's order inside each lane. Items with a status
// outside the three lanes are not shown.
func GroupByStatus(items []entities.Feedback) []KanbanColumn {
	columns := make([]KanbanColumn, len(entities.Statuses))
	index := make(map[entities.FeedbackStatus]int, len(entities.Statuses))
	for i, status := range entities.Statuses {
		columns[i] = KanbanColumn{Status: status, Items: []entities.Feedback{}}
		index[status] = i
	}
	for _, item := range items {
		if i, ok := index[item.Status]; ok {
			columns[i].Items = append(columns[i].Items, item)
		}
	}
	return columns
}
