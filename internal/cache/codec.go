package cache

// Codec converts between raw responses and stored entries.
// The pool does its own serialization, a codec only shapes the record.
type Codec interface {
	Encode(response []byte, metadata Metadata) (*Entry, error)
	Decode(stored *Entry) ([]byte, error)
}

// PassthroughCodec stores the response as-is and ignores metadata
type PassthroughCodec struct{}

func (PassthroughCodec) Encode(response []byte, _ Metadata) (*Entry, error) {
	return &Entry{Response: response}, nil
}

func (PassthroughCodec) Decode(stored *Entry) ([]byte, error) {
	if stored == nil {
		return nil, nil
	}
	return stored.Response, nil
}

// EntryCodec requires url, method and key metadata when saving,
// and a response when loading.
type EntryCodec struct{}

var requiredMetadata = []string{FieldURL, FieldMethod, FieldKey}

func (EntryCodec) Encode(response []byte, metadata Metadata) (*Entry, error) {
	for _, field := range requiredMetadata {
		if _, ok := metadata[field]; !ok {
			return nil, &ValidationError{Field: field, Reason: "metadata item missing when saving"}
		}
	}

	// An empty body is still a present response
	if response == nil {
		response = []byte{}
	}

	return &Entry{
		URL:      metadata[FieldURL],
		Method:   metadata[FieldMethod],
		Key:      metadata[FieldKey],
		Response: response,
	}, nil
}

func (EntryCodec) Decode(stored *Entry) ([]byte, error) {
	if stored == nil || stored.Response == nil {
		return nil, &ValidationError{Field: FieldResponse, Reason: "cache entry has no response"}
	}
	return stored.Response, nil
}
