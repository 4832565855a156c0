package model

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithRoot is an option builder that sets the artificial scene root of the Model.
// The root's children are the scene's top-level nodes.
//
// Parameters:
//   - root: the root node, expected to have ID 0
//
// Returns:
//   - ModelBuilderOption: a function that applies the root option to a model
func WithRoot(root *Node) ModelBuilderOption {
	return func(m *model) {
		m.root = root
	}
}

// WithMeshes is an option builder that sets the meshes of the Model.
//
// Parameters:
//   - meshes: the meshes, indexed by glTF mesh index
//
// Returns:
//   - ModelBuilderOption: a function that applies the meshes option to a model
func WithMeshes(meshes []*Mesh) ModelBuilderOption {
	return func(m *model) {
		m.meshes = meshes
	}
}

// WithAnimations is an option builder that sets the animation clips of the Model.
//
// Parameters:
//   - animations: the animation clips to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the animations option to a model
func WithAnimations(animations []*AnimationClip) ModelBuilderOption {
	return func(m *model) {
		m.animations = animations
	}
}

// WithImported is an option builder that copies name, scene, meshes and animations from an import result.
//
// Parameters:
//   - imported: the import result
//
// Returns:
//   - ModelBuilderOption: a function that applies the imported data to a model
func WithImported(imported *ImportedModel) ModelBuilderOption {
	return func(m *model) {
		if imported == nil {
			return
		}
		m.name = imported.Name
		m.root = imported.Root
		m.meshes = imported.Meshes
		m.animations = imported.Animations
	}
}
