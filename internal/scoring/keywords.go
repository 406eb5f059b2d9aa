package scoring

// technicalKeywords is the vocabulary the heuristic rewards, matched as
// case-insensitive substrings.
var technicalKeywords = []string{
	"react", "node", "javascript", "typescript", "api", "database", "async", "promise",
	"component", "state", "props", "hook", "usestate", "useeffect", "express", "mongodb",
	"sql", "rest", "graphql", "function", "method", "class", "object", "array",
	"server", "client", "frontend", "backend", "http", "https", "json", "redux",
	"authentication", "authorization", "middleware", "routing", "endpoint", "cors",
	"npm", "yarn", "webpack", "babel", "jsx", "dom", "virtual", "lifecycle", "html",
	"css", "framework", "library", "module", "import", "export", "variable", "const",
	"let", "var", "if", "else", "loop", "for", "while", "return", "callback",
}

var (
	exampleCues     = []string{"example", "for example"}
	reasoningCues   = []string{"because", "reason", "why"}
	enumerationCues = []string{"first", "second", "also", "additionally"}
)
