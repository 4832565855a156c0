package viewer

// Selection is the viewer's explicit UI context. It is passed by value to the animation core
// instead of being read from shared state.
type Selection struct {
	// Model is the index of the selected model, or -1 when none is loaded.
	Model int

	// Node is the ID of the selected scene node. 0, the artificial root, means no selection.
	Node uint32

	// DebugJoints requests debug skeleton geometry every frame.
	DebugJoints bool

	// Skinning enables mesh deformation; when off, skinned meshes render in bind pose.
	Skinning bool
}

// JointRef addresses one joint: the skinned node owning the hierarchy and the joint's index in it.
type JointRef struct {
	Node  uint32
	Joint int
}
