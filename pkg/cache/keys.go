package cache

// AnalysisKey builds the cache key for one analysis result. Two requests
// share a key exactly when they run the same operation with the same
// parameters against byte-identical model text.
func AnalysisKey(operation, modelText string, params ...interface{}) string {
	parts := append([]interface{}{operation, modelText}, params...)
	return hashKey("analysis", parts...)
}

// RenderKey builds the cache key for a rendered feature diagram.
func RenderKey(modelText, format string) string {
	return hashKey("render", modelText, format)
}
