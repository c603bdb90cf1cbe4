package protocol

// SetMaxRequestBody lowers the request body limit and returns a func
// restoring the previous one.
func SetMaxRequestBody(limit int64) func() {
	previous := maxRequestBody
	maxRequestBody = limit
	return func() { maxRequestBody = previous }
}
