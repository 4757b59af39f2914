package worker

import "encoding/json"

// DocumentRef identifies a document inside an ingest job.
type DocumentRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// IngestJob is the queue message published by the ingest endpoint.
type IngestJob struct {
	JobID            string      `json:"jobId"`
	S3Key            string      `json:"s3Key"`
	Document         DocumentRef `json:"document"`
	ChunkingStrategy string      `json:"chunkingStrategy,omitempty"`
	CorrelationID    string      `json:"correlation_id,omitempty"`
}

// StorageEvent is the S3 notification envelope that lands on the same
// topic when a browser uploads a file directly to the bucket.
type StorageEvent struct {
	Records []StorageRecord `json:"Records"`
}

type StorageRecord struct {
	EventSource string `json:"eventSource"`
	S3          struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

// IsStorageEvent reports whether the raw message body carries an S3
// event notification rather than an API-published job.
func IsStorageEvent(body []byte) (*StorageEvent, bool) {
	var event StorageEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, false
	}
	if len(event.Records) == 0 || event.Records[0].EventSource != "aws:s3" {
		return nil, false
	}
	return &event, true
}
