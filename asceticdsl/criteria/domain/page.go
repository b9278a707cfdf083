package criteria

// PageRequest is the paging window a Criteria resolves to once the total is known.
type PageRequest struct {
	Number        int    `json:"number"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	Sort          string `json:"sort,omitempty"`
}

// NewPageRequest takes the page and size of c, falling back to the first page and
// the default page size.
func NewPageRequest(c *Criteria, totalElements int64) PageRequest {
	number := c.Page()
	if number < 0 {
		number = 0
	}
	size := c.Size()
	if size < 0 {
		size = CurrentDefaults().PageSize
	}
	return PageRequest{Number: number, Size: size, TotalElements: totalElements, Sort: c.Sort()}
}

func (r PageRequest) Offset() int {
	return r.Number * r.Size
}

func (r PageRequest) TotalPages() int {
	if r.Size == 0 {
		return 1
	}
	return int((r.TotalElements + int64(r.Size) - 1) / int64(r.Size))
}

type Page[T any] struct {
	Request PageRequest `json:"page"`
	Content []T         `json:"content"`
}

func NewPage[T any](request PageRequest, content []T) Page[T] {
	if content == nil {
		content = []T{}
	}
	return Page[T]{Request: request, Content: content}
}

func (p Page[T]) Count() int {
	return len(p.Content)
}

func (p Page[T]) IsFirstPage() bool {
	return p.Request.Number == 0
}

func (p Page[T]) IsLastPage() bool {
	return p.Request.Number == p.Request.TotalPages()-1
}

func (p Page[T]) HasContent() bool {
	return len(p.Content) > 0
}
