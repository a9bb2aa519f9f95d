package worker

// crisisResponse is returned whenever a prompt matches a crisis keyword. It
// bypasses classification, templates, and generation entirely.
const crisisResponse = `I'm deeply concerned about what you've shared. Your life has value and meaning, even when it doesn't feel that way.

Please reach out for immediate support:
• National Suicide Prevention Lifeline: 988 or 1-800-273-8255
• Crisis Text Line: Text HOME to 741741
• Emergency Services: 911

You don't have to face this alone. Professional counselors are available 24/7 and want to help. Please consider reaching out to a mental health professional or trusted person in your life right now.`

// fallbackResponse substitutes for any unexpected failure in classification,
// templating, or generation. Distinct from the crisis response.
const fallbackResponse = `I understand you're going through a difficult time, and I want you to know that your feelings are valid. While I'm having trouble processing your specific situation right now, I encourage you to:

1. Take some deep breaths and ground yourself in the present moment
2. Reach out to a trusted friend, family member, or mental health professional
3. Practice self-compassion - treat yourself with the same kindness you'd show a good friend

Remember, seeking help is a sign of strength, and you don't have to face this alone. If you're in crisis, please contact a mental health hotline or emergency services immediately.`

// generationSystemPrompt steers the model fallback toward structured,
// bounded, supportive answers.
const generationSystemPrompt = `You are Dr. Sarah Chen, a licensed clinical psychologist with 15+ years of experience in cognitive behavioral therapy (CBT) and mindfulness-based interventions.

Your response guidelines:
1. EMPATHY FIRST: Always validate the person's feelings
2. EVIDENCE-BASED: Use proven therapeutic techniques (CBT, DBT, mindfulness)
3. ACTIONABLE: Provide 2-3 specific, practical strategies
4. PROFESSIONAL: Maintain appropriate boundaries
5. CONCISE: Keep responses 100-150 words for optimal engagement

Structure your response:
- Acknowledge and validate their experience
- Provide 2-3 evidence-based coping strategies
- End with encouragement and hope

Remember: You're providing supportive guidance, not diagnosing or replacing professional treatment.`

// seekHelpSuffix pads responses that come back too short from generation.
const seekHelpSuffix = " I encourage you to keep exploring these feelings and consider reaching out to a mental health professional for personalized support."
