package store

// EmptyPHPArray is the serialized empty array the book platform expects in
// its array-typed text columns.
const EmptyPHPArray = "a:0:{}"

// Book is a row of cliperest_book. The table belongs to the book platform;
// column names follow its schema.
type Book struct {
	ID                  uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	UserID              int    `gorm:"column:user_id"`
	Name                string `gorm:"column:name"`
	Slug                string `gorm:"column:slug;size:255;index"`
	Rendered            int    `gorm:"column:rendered"`
	Version             int    `gorm:"column:version"`
	CategoryID          int    `gorm:"column:category_id"`
	Modified            string `gorm:"column:modified"`
	AddEnd              int    `gorm:"column:addEnd"`
	CoverImage          string `gorm:"column:coverImage"`
	Sharing             int    `gorm:"column:sharing"`
	CoverColor          string `gorm:"column:coverColor"`
	DollarsGiven        int    `gorm:"column:dollarsGiven"`
	Privacy             int    `gorm:"column:privacy"`
	Type                int    `gorm:"column:type"`
	Created             string `gorm:"column:created"`
	CoverHexColor       string `gorm:"column:coverHexColor"`
	NumLikers           int    `gorm:"column:numLikers"`
	Description         string `gorm:"column:description"`
	Tags                string `gorm:"column:tags"`
	ThumbnailImage      string `gorm:"column:thumbnailImage"`
	NumClips            int64  `gorm:"column:numClips"`
	NumViews            int    `gorm:"column:numViews"`
	UserLanguage        string `gorm:"column:userLanguage"`
	EmbedCode           string `gorm:"column:embed_code"`
	ThumbnailImageSmall string `gorm:"column:thumbnailImageSmall"`
	HumanModified       string `gorm:"column:humanModified"`
	CoverV3             string `gorm:"column:coverV3"`
	TypeFilters         string `gorm:"column:typeFilters"`
}

func (Book) TableName() string { return "cliperest_book" }

// Clipping is a row of cliperest_clipping: one product inside a book.
type Clipping struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	BookID       uint64 `gorm:"column:book_id;index"`
	Caption      string `gorm:"column:caption"`
	Text         string `gorm:"column:text"`
	Thumbnail    string `gorm:"column:thumbnail"`
	UseThumbnail int    `gorm:"column:useThumbnail"`
	Type         int    `gorm:"column:type"`
	URL          string `gorm:"column:url"`
	Created      string `gorm:"column:created"`
	Num          int    `gorm:"column:num"`
	MigratedS3   int    `gorm:"column:migratedS3"`
	Modified     string `gorm:"column:modified"`
}

func (Clipping) TableName() string { return "cliperest_clipping" }

// Ministore is a topic-level store in the catalog tables.
type Ministore struct {
	ID        string `gorm:"column:id;primaryKey;size:64"`
	Topic     string `gorm:"column:topic;size:255;not null"`
	Language  string `gorm:"column:language;size:8;not null;default:es"`
	CreatedAt int64  `gorm:"column:created_at;not null;autoCreateTime:false"`
}

func (Ministore) TableName() string { return "ministores" }

// MinistoreItem is a product shared by any number of ministores.
type MinistoreItem struct {
	ID          string `gorm:"column:id;primaryKey;size:128"`
	Title       string `gorm:"column:title;type:text"`
	Description string `gorm:"column:description;type:text"`
	URL         string `gorm:"column:url;type:text"`
	Keywords    string `gorm:"column:keywords;size:255"`
	Language    string `gorm:"column:language;size:8"`
}

func (MinistoreItem) TableName() string { return "ministore_items" }

// MinistoreItemMap places an item at a position inside a ministore.
type MinistoreItemMap struct {
	MinistoreID string `gorm:"column:ministore_id;primaryKey;size:64;index:idx_ministore"`
	ItemID      string `gorm:"column:item_id;primaryKey;size:128"`
	Pos         int    `gorm:"column:pos;not null"`
}

func (MinistoreItemMap) TableName() string { return "ministore_item_map" }
