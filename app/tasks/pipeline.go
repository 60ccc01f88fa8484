package tasks

import "github.com/lysyi3m/mail-comb/app/feed"

// Pipeline holds the shared components and builds tasks from them, so the
// scheduler, the HTTP API and the CLI commands all run the same code.
type Pipeline struct {
	Source    SourceFetcher
	Parser    EntryParser
	Processor DigestProcessor
	Publisher FeedPublisher
	Blocklist BlocklistRefresher
	Entries   EntryResetter
	Articles  BackfillStore
	Extractor feed.Extractor
}

func (p *Pipeline) ProcessDigest() TaskInterface {
	return NewProcessDigestTask(p.Source, p.Parser, p.Processor, p.Publisher, p.Blocklist)
}

func (p *Pipeline) PublishFeed() TaskInterface {
	return NewPublishFeedTask(p.Publisher)
}

func (p *Pipeline) ResetEntries(entryIDs []string) TaskInterface {
	return NewResetEntryTask(entryIDs, p.Entries)
}

func (p *Pipeline) BackfillContent(limit int) TaskInterface {
	return NewBackfillContentTask(limit, p.Articles, p.Extractor)
}
