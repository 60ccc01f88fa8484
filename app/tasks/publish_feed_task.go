package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type PublishFeedTask struct {
	Task
	publisher FeedPublisher
}

func NewPublishFeedTask(publisher FeedPublisher) *PublishFeedTask {
	return &PublishFeedTask{
		Task:      NewTask(TaskTypePublishFeed),
		publisher: publisher,
	}
}

func (t *PublishFeedTask) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	count, err := t.publisher.Run()
	if err != nil {
		return fmt.Errorf("failed to publish feed: %w", err)
	}

	slog.Info("Task completed", "type", "PublishedFeed", "duration", t.GetDuration(), "articles", count)

	return nil
}
