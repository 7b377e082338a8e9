package schema

// Users holds registered accounts.
var Users = NewTable("users",
	Text("username", "username").NotNull().Unique(),
	Text("password", "password").NotNull(),
)

// Models holds metadata for uploaded 3D assets. The asset bytes live
// elsewhere; fileUrl points at them.
var Models = NewTable("models",
	Varchar("id", "id").PrimaryKey().DefaultRandomUUID(),
	Text("name", "name").NotNull(),
	Text("fileUrl", "file_url").NotNull(),
	Text("fileType", "file_type").NotNull(),
	Real("fileSize", "file_size").NotNull(),
	Varchar("uploadedBy", "uploaded_by").NotNull(),
	Timestamp("uploadedAt", "uploaded_at").NotNull().DefaultNow(),
)

// Annotations holds spatial notes attached to a room.
var Annotations = NewTable("annotations",
	Varchar("id", "id").PrimaryKey().DefaultRandomUUID(),
	Varchar("roomId", "room_id").NotNull(),
	Text("title", "title").NotNull(),
	Text("description", "description"),
	JSONB("position", "position").NotNull(),
	Varchar("createdBy", "created_by").NotNull(),
	Timestamp("createdAt", "created_at").NotNull().DefaultNow(),
)

// Tables lists every table in creation order.
var Tables = []*Table{Users, Models, Annotations}

var (
	InsertUser       = CreateInsertSchema(Users).Pick("username", "password")
	InsertModel      = CreateInsertSchema(Models).Omit("id", "uploadedAt")
	InsertAnnotation = CreateInsertSchema(Annotations).Omit("id", "createdAt")
)
