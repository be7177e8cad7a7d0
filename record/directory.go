package record

// DirectoryRecord is the normalized view of one directory: its files
// already analyzed, its subdirectories (possibly lazily populated by
// the caller), and the multi-callable-default determination made once
// per directory before any ShapePlan is emitted.
type DirectoryRecord struct {
	Path                      string
	FolderName                string
	ApiKey                    string
	Files                     []ModuleRecord
	SubDirs                   []DirectoryRecord
	Depth                     int
	HasMultipleCallableDefaults bool
}

// DetermineMultiCallableDefault runs the one-pass determination: a
// directory is multi-default when two or more of its files carry a
// non-self-referential default and at least one is callable. Callers build a DirectoryRecord's Files slice first, then
// call this to fill in HasMultipleCallableDefaults before asking for a
// ShapePlan.
func DetermineMultiCallableDefault(files []ModuleRecord) bool {
	nonSelfDefaults := 0
	anyCallable := false
	for _, f := range files {
		if !f.HasDefault || f.IsSelfReferentialDefault {
			continue
		}
		nonSelfDefaults++
		if f.DefaultKind == KindFunction || f.MarkedAsCallableDefault {
			anyCallable = true
		}
	}
	return nonSelfDefaults >= 2 && anyCallable
}

// NewDirectoryRecord analyzes Files' multi-default status and returns a
// fully populated DirectoryRecord for path/folderName/apiKey/depth.
func NewDirectoryRecord(path, folderName, apiKey string, depth int, files []ModuleRecord, subDirs []DirectoryRecord) DirectoryRecord {
	return DirectoryRecord{
		Path:                        path,
		FolderName:                  folderName,
		ApiKey:                      apiKey,
		Files:                       files,
		SubDirs:                     subDirs,
		Depth:                       depth,
		HasMultipleCallableDefaults: DetermineMultiCallableDefault(files),
	}
}
