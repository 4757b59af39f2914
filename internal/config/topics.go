package config

const (
	// TopicIngestDoc is the NSQ topic carrying document ingestion jobs.
	TopicIngestDoc = "ingest.task.doc"

	// ChannelIngestWorker is the consumer channel for the ingestion worker.
	ChannelIngestWorker = "ingest-worker"
)
