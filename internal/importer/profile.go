package importer

// dispositionMode determines how a row states its disposition.
type dispositionMode int

const (
	// dispositionStatus means one status column such as "resold" or "scrap".
	dispositionStatus dispositionMode = iota
	// dispositionFlags means three boolean columns, exactly one set.
	dispositionFlags
)

// Profile describes the column layout of an item export. Column names are
// matched case-insensitively; each field lists accepted aliases.
type Profile struct {
	Name         string
	IDCols       []string
	TypeCols     []string
	GradeCols    []string
	Mode         dispositionMode
	StatusCols   []string
	ReusedCols   []string
	ResoldCols   []string
	ScrappedCols []string
}

func (p Profile) required() [][]string {
	cols := [][]string{p.TypeCols, p.GradeCols}

	switch p.Mode {
	case dispositionStatus:
		cols = append(cols, p.StatusCols)
	case dispositionFlags:
		cols = append(cols, p.ReusedCols, p.ResoldCols, p.ScrappedCols)
	}

	return cols
}

var (
	idCols    = []string{"id", "_id", "itemid", "item id", "serial", "serial number", "asset tag"}
	typeCols  = []string{"producttype", "product type", "product_type", "producttypeid", "type", "category"}
	gradeCols = []string{"grade", "condition"}
)

// profiles is tried in order; flag exports are more specific and come first.
var profiles = []Profile{
	{
		Name:         "flags",
		IDCols:       idCols,
		TypeCols:     typeCols,
		GradeCols:    gradeCols,
		Mode:         dispositionFlags,
		ReusedCols:   []string{"reused", "reuse"},
		ResoldCols:   []string{"resold", "resale", "sold"},
		ScrappedCols: []string{"scrapped", "scraped", "scrap", "recycled"},
	},
	{
		Name:       "status",
		IDCols:     idCols,
		TypeCols:   typeCols,
		GradeCols:  gradeCols,
		Mode:       dispositionStatus,
		StatusCols: []string{"status", "disposition", "outcome"},
	},
}
