package terms

// academicNoise holds words that appear in tables of contents and front matter
// of nearly every book and therefore say nothing about its subject.
var academicNoise = toSet(
	"chapter", "page", "pages", "contents", "table", "section", "index", "appendix",
	"introduction", "preface", "bibliography", "references", "part", "volume",
	"edition", "author", "title", "copyright", "foreword", "abbreviations",
	"acknowledgements", "acknowledgments", "overview", "review", "aim", "goal",
	"method", "result", "results", "discussion", "analysis", "study", "work",
	"paper", "book", "text", "reference", "note", "notes", "example", "examples",
	"exercise", "exercises", "problem", "problems", "solution", "solutions",
	"answer", "answers", "question", "questions", "test", "exam", "assignment",
	"lecture", "lectures", "course", "syllabus", "schedule", "calendar",
	"time", "date", "year", "month", "day", "week", "hour", "minute",
	"second", "first", "third", "fourth", "fifth", "last", "next",
	"previous", "following", "general", "specific", "basic", "advanced",
	"elementary", "intermediate", "total", "average",
	"high", "low", "small", "large", "big", "short", "long",
	"better", "worse", "good", "bad", "best", "worst", "simple", "complex",
	"hard", "easy", "new", "old", "modern", "ancient", "future", "past",
	"current", "present", "various", "several", "many", "much", "few", "little",
	"less", "more", "most", "least", "some", "any", "all", "none", "every",
	"each", "other", "another", "such", "this", "that", "these", "those",
	"which", "what", "where", "when", "who", "whom", "whose", "why", "how",
	"definition", "definitions", "defined", "summary", "summaries", "conclusion",
	"conclusions", "remark", "remarks", "further", "reading", "readings",
	"concept", "concepts", "principle", "principles", "theory", "theories",
	"application", "applications", "system", "systems", "structure", "structures",
	"process", "processes", "function", "functions", "property", "properties",
	"background", "material", "materials", "view", "views", "perspective",
	"perspectives", "approach", "approaches", "technique", "techniques",
	"topic", "topics", "issue", "issues", "aspect", "aspects", "feature",
	"features", "element", "elements", "component", "components", "unit", "units",
	"item", "items", "detail", "details", "description", "descriptions",
	"explanation", "explanations", "illustrative", "illustration", "illustrations",
	"case", "cases", "studies", "survey", "surveys", "report", "reports",
	"history", "historical", "development", "developments",
	"foundation", "foundations", "fundamental", "fundamentals", "basis", "bases",
	"core", "key", "main", "major", "minor", "significant", "important",
	"relevant", "related", "associated", "connected", "linked", "common",
	"standard", "typical", "usual", "normal", "regular", "ordinary", "special",
	"particular", "individual", "unique", "distinct", "different",
	"similar", "same", "equal", "equivalent", "identical",
	"value", "data", "information", "knowledge", "understanding", "insight",
	"meaning", "sense", "interpretation", "translation", "version",
	"publication", "publisher", "published", "print", "printed", "printing",
	"press", "journal", "magazine", "article", "essay", "thesis", "dissertation",
	"monograph", "treatise", "manual", "guide", "handbook", "textbook",
	"dictionary", "encyclopedia", "glossary", "vocabulary", "terminology",
	"style", "format", "layout", "design", "organization", "arrangement",
	"order", "sequence", "series", "list", "chart", "graph", "diagram",
	"figure", "figures", "image", "picture", "photo", "map", "plan", "scheme",
	"sketch", "draft", "outline", "abstract", "extract", "excerpt", "quote",
	"quotation", "citation", "supplement", "addendum", "attachment",
	"label", "tag", "marker", "sign", "symbol", "record", "file", "document",
	"form", "sheet", "side", "front", "back", "top", "bottom", "left", "right",
	"center", "middle", "end", "start", "beginning", "origin", "source",
	"cause", "reason", "purpose", "objective", "target", "direction", "path",
	"way", "line", "lines", "row", "column", "level", "stage", "phase",
	"state", "condition", "situation", "context", "setting", "point",
	"location", "place", "position", "type", "kind", "sort", "class",
	"category", "group", "set", "collection", "piece", "segment", "area",
	"field", "domain", "world", "change", "problem", "difficulty", "effort",
	"attempt", "trial", "experiment", "investigation", "inquiry",
	"hypothesis", "estimate", "calculation", "measurement", "observation",
	"discovery", "invention", "creation", "innovation", "variation",
	"rule", "rules", "law", "laws", "copy", "issue", "digest", "critique",
	"commentary", "dedication", "epilogue", "prologue", "postscript",
	"acknowledgement", "list", "tables", "notation", "symbols", "answers",
	"hints", "further", "suggested", "selected", "additional", "miscellaneous",
)

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func isAcademicNoise(word string) bool {
	_, ok := academicNoise[word]
	return ok
}
