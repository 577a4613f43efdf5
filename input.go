package main

// InputHandler handles keyboard and mouse input for one frame
type InputHandler struct {
	inputActions        InputActions
	inputState          InputState
	keybindingManager   *KeybindingManager
	mousebindingManager *MousebindingManager
}

// NewInputHandler creates a new InputHandler
func NewInputHandler(inputActions InputActions, inputState InputState, keybindingManager *KeybindingManager, mousebindingManager *MousebindingManager) *InputHandler {
	return &InputHandler{
		inputActions:        inputActions,
		inputState:          inputState,
		keybindingManager:   keybindingManager,
		mousebindingManager: mousebindingManager,
	}
}

// HandleInput processes all input for the current frame
// Returns true if any input was processed, false otherwise
func (h *InputHandler) HandleInput() bool {
	mods := currentModifiers()
	inputProcessed := h.handleApplicationKeys(mods)

	if h.inputActions.GetTotalPagesCount() == 0 {
		return inputProcessed
	}

	inputProcessed = h.handleNavigationKeys(mods) || inputProcessed
	inputProcessed = h.handleViewKeys(mods) || inputProcessed

	if h.mousebindingManager != nil {
		inputProcessed = h.mousebindingManager.HandleInput(h.inputActions, h.inputState) || inputProcessed
	}

	return inputProcessed
}

func (h *InputHandler) execute(mods Modifiers, actions ...string) bool {
	processed := false
	for _, action := range actions {
		if h.keybindingManager.ExecuteAction(action, mods, h.inputActions, h.inputState) {
			processed = true
		}
	}
	return processed
}

func (h *InputHandler) handleApplicationKeys(mods Modifiers) bool {
	return h.execute(mods, "exit", "help", "fullscreen", "toggle_overlay", "toggle_reading_direction")
}

func (h *InputHandler) handleNavigationKeys(mods Modifiers) bool {
	// Navigation keys are ignored while the slider is held
	if h.inputState.IsSliderDragging() {
		return false
	}
	return h.execute(mods, "next", "previous", "jump_first", "jump_last")
}

func (h *InputHandler) handleViewKeys(mods Modifiers) bool {
	return h.execute(mods, "zoom_in", "zoom_out", "zoom_reset", "zoom_fit", "pan_up", "pan_down", "pan_left", "pan_right")
}
