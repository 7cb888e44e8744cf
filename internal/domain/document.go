package domain

// PDFMetadata holds document-level metadata for a PDF file
type PDFMetadata struct {
	Filename string `json:"filename"`
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	NumPages int    `json:"num_pages"`
	FileSize int64  `json:"file_size"`
}

// PageContent is the extracted text of a single PDF page
type PageContent struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// SearchMatch is one search hit within a document
type SearchMatch struct {
	Page    int    `json:"page"`
	Snippet string `json:"snippet"`
}

// SearchResponse is the response for an in-document text search
type SearchResponse struct {
	Query    string        `json:"query"`
	Filename string        `json:"filename"`
	Results  []SearchMatch `json:"results"`
	Total    int           `json:"total"`
}
